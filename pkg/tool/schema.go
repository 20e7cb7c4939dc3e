// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tool

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
)

var descriptions = map[Name]string{
	NameSearchIndicator: "Busca el ID de un indicador en el catálogo de INEGI o Banxico cuando no conoces el ID exacto. Usa esta herramienta ANTES de get_inegi_data o get_banxico_data si no tienes el ID.",
	NameInegiData:       "Obtiene datos de indicadores económicos del INEGI (PIB, inflación, población, empleo, etc.)",
	NameBanxicoData:     "Obtiene series financieras del Banco de México (tipo de cambio, tasas, reservas, UDIS, etc.). Acepta un rango de fechas opcional.",
	NameShcpData:        "Obtiene datos de finanzas públicas de la SHCP (deuda, ingresos, gastos, RFSP)",
}

var specs = sync.OnceValues(func() ([]Spec, error) {
	out := make([]Spec, 0, len(Names()))
	for _, name := range Names() {
		var (
			params map[string]any
			err    error
		)
		switch name {
		case NameSearchIndicator:
			params, err = generateSchema[SearchIndicator]()
		case NameInegiData:
			params, err = generateSchema[InegiData]()
		case NameBanxicoData:
			params, err = generateSchema[BanxicoData]()
		case NameShcpData:
			params, err = generateSchema[ShcpData]()
		}
		if err != nil {
			return nil, fmt.Errorf("failed to generate schema for %s: %w", name, err)
		}
		out = append(out, Spec{Name: string(name), Description: descriptions[name], Parameters: params})
	}
	return out, nil
})

// Specs returns the four tool specs. The slice is shared; do not modify it.
func Specs() ([]Spec, error) {
	return specs()
}

// generateSchema reflects the argument struct into an inline object schema.
func generateSchema[T any]() (map[string]any, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(new(T))

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	result := map[string]any{
		"type":       "object",
		"properties": m["properties"],
	}
	if required, ok := m["required"]; ok {
		result["required"] = required
	}
	return result, nil
}
