// Package output renders check-suite summaries for humans (console) and
// machines (JSON, JUnit XML).
package output
