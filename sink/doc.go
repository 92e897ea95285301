/*
Package sink persists the email addresses that passed the MX host check,
appending them line by line to an output file as soon as their verdicts come
in. At the same time, a [Sink] keeps a tally of all verdicts seen and logs
diagnostics for email addresses that couldn't be checked.

	                  +---+
	ch MatchResult--->| S +-->file
	                  +---+

[FileAppender] opens, writes, and closes the output file for each single line,
serializing concurrent appends. Failing appends are logged and counted, but
never stop the sink.
*/
package sink
