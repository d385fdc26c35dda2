package compiler

import "github.com/davide125/wzsh/value"

func emptyList() value.Value   { return value.List(nil) }
func emptyString() value.Value { return value.String("") }
