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

package agent

import (
	"fmt"
	"strings"
)

// User-facing messages. They are part of the product and stay in Spanish.
const (
	msgNoLLMKey         = "No tienes configurada ninguna API Key de LLM. Ve a Configuración y añade una API Key de OpenAI, Google o Groq."
	msgQuotaExhausted   = "Todos los proveedores de LLM han excedido su cuota. Intenta más tarde o añade otra API Key."
	msgIterationLimit   = "Se alcanzó el límite de iteraciones. Por favor, sé más específico en tu solicitud."
	msgInvalidArguments = "Error al procesar los argumentos de la función."
	msgFetchFailed      = "No pude obtener los datos solicitados. Verifica que el indicador exista."
	msgUnhandled        = "Error al procesar la solicitud. Revisa los logs del servidor."
	msgNoAnswer         = "No pude procesar tu solicitud."
)

func msgLLMError(detail string) string {
	return "Error del LLM: " + detail
}

func msgNotFound(id, source string) string {
	return fmt.Sprintf("El indicador %s no existe en %s o no está disponible. Intenta buscar con otros términos usando el catálogo.", id, source)
}

func msgNoCredential(name string) string {
	upper := strings.ToUpper(name)
	return fmt.Sprintf("No tienes configurada la API Key de %s. Ve a Configuración y añade tu token de %s.", upper, upper)
}

func msgDataFallback(label string) string {
	return fmt.Sprintf("Aquí están los datos de %s:", label)
}
