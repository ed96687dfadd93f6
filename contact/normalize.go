package contact

// Normalize coerces raw input into the canonical four-field shape.
// Any value that is not a string becomes "", unknown keys are dropped and
// absent keys read as "". The input map is not modified.
func Normalize(in Input) Fields {
	return Fields{
		FirstName: stringValue(in, KeyFirstName),
		LastName:  stringValue(in, KeyLastName),
		Email:     stringValue(in, KeyEmail),
		Phone:     stringValue(in, KeyPhone),
	}
}

func stringValue(in Input, key string) string {
	s, _ := in[key].(string)
	return s
}
