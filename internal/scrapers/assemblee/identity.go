package assemblee

import "strings"

// ResolveName splits a displayed deputy name like "Mme Jeanne de Fleurian" into its first
// and last name. The leading honorific is dropped, the next token is the first name and
// everything after it is the last name, so particles ("de", "Le") end up in the last name.
//
// A composed first name ("Jean-Luc" is fine, "Marie France" is not) cannot be told apart
// from a composed last name and is split after its first word.
func ResolveName(displayName string) (firstName, lastName string) {
	tokens := strings.Fields(displayName)
	if len(tokens) < 2 {
		return "", ""
	}
	tokens = tokens[1:]
	return tokens[0], strings.Join(tokens[1:], " ")
}
