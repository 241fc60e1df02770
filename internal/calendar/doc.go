// Package calendar maps assignment due dates to academic-period buckets.
//
// A Bucketer resolves a semester label by trying, in order, the user's custom phases,
// the user's single custom range and finally the built-in academic calendar. The first
// strategy that contains the local due date wins. Malformed phases are skipped silently.
//
// Week labels are only defined for built-in semesters. Labels containing "Special Term"
// or "Winter Term" are returned verbatim as the week.
package calendar
