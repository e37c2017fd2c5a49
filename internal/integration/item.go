package integration

// Item es la representación normalizada de un recurso del proveedor.
// Es el único contrato de datos expuesto a los consumidores downstream.
//
// ID debe ser globalmente único dentro de un batch: los adapters cuyo espacio
// de ids nativo no es disjunto por tipo (Airtable) agregan un sufijo de tipo.
type Item struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	ParentID         string `json:"parent_id,omitempty"`
	ParentPathOrName string `json:"parent_path_or_name,omitempty"`
	CreationTime     string `json:"creation_time,omitempty"`
	LastModifiedTime string `json:"last_modified_time,omitempty"`
	URL              string `json:"url,omitempty"`
}

// Credentials es el payload opaco de tokens del proveedor.
// Como mínimo trae access_token; el resto depende del proveedor.
type Credentials map[string]any

// AccessToken extrae el access_token, o "" si no está.
func (c Credentials) AccessToken() string {
	tok, _ := c["access_token"].(string)
	return tok
}
