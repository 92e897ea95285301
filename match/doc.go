/*
Package match implements the rules deciding which MX hosts qualify an email
address. There are two kinds of [Rule]:

  - [ExactSet] matches MX hosts that are exactly one of a set of target
    hosts, such as "smtpin.rzone.de".
  - [SubstringAny] matches MX hosts containing any of a set of markers, such
    as "rzone.de" or "strato".

[Evaluate] applies a rule to a list of MX hosts in priority order and reports
the first qualifying host, so the outcome is deterministic for the same hosts
and rule.

# Acknowledgements

Target and marker sets are [deckarep/golang-set] sets.

[deckarep/golang-set]: https://github.com/deckarep/golang-set
*/
package match
