package tools

// Accessor helpers for reading already-coerced params out of the map a
// Handler receives. Each returns the zero value when the field is absent,
// which is correct here because validateAndCoerce has already rejected any
// call missing a field its schema marks required.

func getString(p map[string]interface{}, key string) string {
	v, _ := p[key].(string)
	return v
}

func getInt(p map[string]interface{}, key string) int {
	v, _ := p[key].(int)
	return v
}

func getIntPtr(p map[string]interface{}, key string) *int {
	v, ok := p[key].(int)
	if !ok {
		return nil
	}
	return &v
}

func getFloat(p map[string]interface{}, key string) float64 {
	v, _ := p[key].(float64)
	return v
}

func getBool(p map[string]interface{}, key string) bool {
	v, _ := p[key].(bool)
	return v
}

func getStringList(p map[string]interface{}, key string) []string {
	v, _ := p[key].([]string)
	return v
}

func getObject(p map[string]interface{}, key string) map[string]interface{} {
	v, _ := p[key].(map[string]interface{})
	return v
}
