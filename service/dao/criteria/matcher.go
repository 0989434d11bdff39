// Package criteria matches journal entries against list parameters.
package criteria

import (
	"github.com/viant/sesh/journal"
	"github.com/viant/sesh/service/dao"
)

// Matches reports whether an entry satisfies all supplied parameters.
// An empty parameter set matches everything; unknown parameter names are
// not restrictive.
func Matches(entry *journal.Entry, parameters []*dao.Parameter) bool {
	if entry == nil {
		return false
	}
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		var actual string
		switch parameter.Name {
		case "SessionID":
			actual = entry.SessionID
		case "Host":
			actual = entry.Host
		case "Command":
			actual = entry.Command
		default:
			continue
		}
		if !matchValue(actual, parameter.Value) {
			return false
		}
	}
	return true
}

func matchValue(actual string, expected interface{}) bool {
	switch expected := expected.(type) {
	case string:
		return actual == expected
	case []string:
		for _, candidate := range expected {
			if actual == candidate {
				return true
			}
		}
		return false
	}
	return true
}
