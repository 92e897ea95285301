// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import "github.com/muesli/termenv"

var (
	matchedStyle   = termenv.Style{}.Foreground(termenv.ANSIGreen)
	failedStyle    = termenv.Style{}.Foreground(termenv.ANSIRed)
	noRecordsStyle = termenv.Style{}.Foreground(termenv.ANSIYellow)
)

var ruleStyle = termenv.Style{}.Bold()
