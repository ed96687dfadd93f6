package validator

var tagMap = map[string]string{
	"required":  "required",
	"omitempty": "optional",
	"email":     "invalid_email",
	"e164":      "invalid_phone",
	"uuid":      "invalid_uuid",
	"max":       "too_long",
	"min":       "too_short",
	"len":       "invalid_length",
	"oneof":     "invalid_choice",
}

func mapTagToCode(tag string) string {
	if code, ok := tagMap[tag]; ok {
		return code
	}
	return "invalid"
}
