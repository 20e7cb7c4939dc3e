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

// Package tool defines the closed set of tools the assistant can invoke,
// their parameter schemas, argument decoding and dispatch.
//
// # Tools
//
//	search_indicator   resolve a phrase to INEGI or Banxico ids
//	get_inegi_data     fetch an INEGI indicator (needs the user's INEGI token)
//	get_banxico_data   fetch a Banxico series, optionally bounded by dates
//	get_shcp_data      fetch an SHCP public-finance dataset (no token)
//
// Arguments arrive as a loosely typed map from the model. Decode turns them
// into one of the Call structs, rejecting unknown keys and failing the
// validator tags, so dispatch is a type switch over a sealed interface.
package tool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

var (
	// ErrUnknownTool reports a call to a name outside the closed set.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidArguments reports arguments that do not match the tool schema.
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

// Name identifies a tool.
type Name string

const (
	NameSearchIndicator Name = "search_indicator"
	NameInegiData       Name = "get_inegi_data"
	NameBanxicoData     Name = "get_banxico_data"
	NameShcpData        Name = "get_shcp_data"
)

// Names lists every tool in the order they are offered to the model.
func Names() []Name {
	return []Name{NameSearchIndicator, NameInegiData, NameBanxicoData, NameShcpData}
}

// Spec describes a tool to a model: its name, purpose and JSON schema.
type Spec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a tool invocation requested by a model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Call is a decoded, validated tool invocation.
type Call interface {
	ToolName() Name
}

// SearchIndicator looks up catalog ids for a phrase.
type SearchIndicator struct {
	Query  string `json:"query" jsonschema:"required,description=Palabras clave del indicador a buscar (ej: inflacion; PIB; tipo de cambio)" validate:"required"`
	Source string `json:"source" jsonschema:"required,enum=inegi,enum=banxico,description=Fuente donde buscar: inegi o banxico" validate:"required,oneof=inegi banxico"`
}

// InegiData fetches one INEGI indicator.
type InegiData struct {
	IndicatorID string `json:"indicator_id" jsonschema:"required,description=ID del indicador INEGI (ej: 444456 para PIB; 5264722 para inflación anual)" validate:"required"`
}

// BanxicoData fetches one Banxico series. Dates come in pairs.
type BanxicoData struct {
	SeriesID  string `json:"series_id" jsonschema:"required,description=ID de la serie Banxico (ej: SF43718 para tipo de cambio FIX; SF61745 para tasa objetivo)" validate:"required"`
	StartDate string `json:"start_date,omitempty" jsonschema:"description=Fecha inicial YYYY-MM-DD (opcional; requiere end_date)" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date,omitempty" jsonschema:"description=Fecha final YYYY-MM-DD (opcional; requiere start_date)" validate:"omitempty,datetime=2006-01-02"`
}

// ShcpData fetches one SHCP dataset.
type ShcpData struct {
	DatasetID string `json:"dataset_id" jsonschema:"required,enum=deuda_publica,enum=ingreso_gasto,enum=transferencias,enum=rfsp,enum=deuda_amplia,description=ID del dataset SHCP" validate:"required,oneof=deuda_publica ingreso_gasto transferencias rfsp deuda_amplia"`
}

func (SearchIndicator) ToolName() Name { return NameSearchIndicator }
func (InegiData) ToolName() Name       { return NameInegiData }
func (BanxicoData) ToolName() Name     { return NameBanxicoData }
func (ShcpData) ToolName() Name        { return NameShcpData }

var validate = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		args := sl.Current().Interface().(BanxicoData)
		if (args.StartDate == "") != (args.EndDate == "") {
			sl.ReportError(args.EndDate, "end_date", "EndDate", "both_or_neither", "")
		}
	}, BanxicoData{})
	return v
})

// Decode converts a model tool call into a typed Call. Unknown names yield
// ErrUnknownTool; anything else wrong with the arguments yields
// ErrInvalidArguments.
func Decode(call ToolCall) (Call, error) {
	switch Name(call.Name) {
	case NameSearchIndicator:
		return decodeInto[SearchIndicator](call)
	case NameInegiData:
		return decodeInto[InegiData](call)
	case NameBanxicoData:
		return decodeInto[BanxicoData](call)
	case NameShcpData:
		return decodeInto[ShcpData](call)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)
	}
}

func decodeInto[T Call](call ToolCall) (Call, error) {
	var args T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &args,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(call.Arguments); err != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrInvalidArguments, call.Name, err)
	}
	if err := validate().Struct(args); err != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrInvalidArguments, call.Name, err)
	}
	return args, nil
}
