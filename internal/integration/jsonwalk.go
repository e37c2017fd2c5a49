package integration

// SearchKey busca target en un valor JSON decodificado (map[string]any,
// []any o escalares), depth-first y first-match-wins. En un objeto primero
// se prueba el hit directo de la key y recién después se desciende a los
// valores; los elementos de un array se recorren en orden.
func SearchKey(v any, target string) (any, bool) {
	switch node := v.(type) {
	case map[string]any:
		if hit, ok := node[target]; ok {
			return hit, true
		}
		for _, child := range node {
			if hit, ok := SearchKey(child, target); ok {
				return hit, true
			}
		}
	case []any:
		for _, child := range node {
			if hit, ok := SearchKey(child, target); ok {
				return hit, true
			}
		}
	}
	return nil, false
}
