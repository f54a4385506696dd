package consent

import (
	"encoding/json"
	"time"

	"github.com/bridgehealth/consentbridge/internal/domain/model"
	"github.com/bridgehealth/consentbridge/internal/observability/logger"
)

// Resource es un recurso FHIR serializado, con el JSON crudo adjunto.
type Resource struct {
	ResourceID   string    `json:"resourceId"`
	ResourceType string    `json:"resourceType"`
	FHIRVersion  string    `json:"fhirVersion,omitempty"`
	Content      []byte    `json:"content"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// fieldCategories mapea campos top-level de cada resource type a la
// categoría que los gobierna. Campos sin mapeo son estructurales y pasan.
var fieldCategories = map[string]map[string]model.DataCategory{
	"Patient": {
		"name":          model.CategoryDemographics,
		"gender":        model.CategoryDemographics,
		"birthDate":     model.CategoryDemographics,
		"address":       model.CategoryDemographics,
		"telecom":       model.CategoryDemographics,
		"maritalStatus": model.CategoryDemographics,
	},
	"Observation": {
		"valueQuantity":     model.CategoryLabResults,
		"valueString":       model.CategoryLabResults,
		"referenceRange":    model.CategoryLabResults,
		"interpretation":    model.CategoryLabResults,
		"component":         model.CategoryVitalSigns,
		"note":              model.CategoryClinicalNotes,
		"effectiveDateTime": model.CategoryLabResults,
	},
	"MedicationRequest": {
		"medicationCodeableConcept": model.CategoryMedications,
		"dosageInstruction":         model.CategoryMedications,
		"dispenseRequest":           model.CategoryMedications,
		"note":                      model.CategoryClinicalNotes,
	},
	"AllergyIntolerance": {
		"code":     model.CategoryAllergies,
		"reaction": model.CategoryAllergies,
		"note":     model.CategoryClinicalNotes,
	},
	"Condition": {
		"code":     model.CategoryDiagnoses,
		"evidence": model.CategoryDiagnoses,
		"note":     model.CategoryClinicalNotes,
	},
	"Immunization": {
		"vaccineCode":  model.CategoryImmunizations,
		"doseQuantity": model.CategoryImmunizations,
		"note":         model.CategoryClinicalNotes,
	},
	"Procedure": {
		"code":      model.CategoryProcedures,
		"performed": model.CategoryProcedures,
		"note":      model.CategoryClinicalNotes,
	},
	"DiagnosticReport": {
		"result":            model.CategoryLabResults,
		"conclusion":        model.CategoryClinicalNotes,
		"presentedForm":     model.CategoryImagingReports,
		"media":             model.CategoryImagingReports,
		"conclusionCode":    model.CategoryDiagnoses,
		"effectiveDateTime": model.CategoryLabResults,
	},
}

// FilterResource recorta un recurso según las categorías permitidas.
// Consent inactivo bloquea todo (retorna nil). ALL pasa el recurso intacto.
func FilterResource(res *Resource, rec *model.ConsentRecord, now time.Time) *Resource {
	if res == nil || rec == nil {
		return nil
	}
	if !rec.IsActiveAt(now) {
		return nil
	}
	if rec.Allows(model.CategoryAll) && allUnrestricted(res.ResourceType) {
		return res
	}

	var root map[string]any
	if err := json.Unmarshal(res.Content, &root); err != nil {
		// JSON ilegible: bloquear antes que filtrar a medias.
		logger.L().Warn("resource blocked: unparseable content",
			logger.String("resource_type", res.ResourceType), logger.Err(err))
		return nil
	}

	mappings := fieldCategories[res.ResourceType]
	for field, cat := range mappings {
		if !rec.Allows(cat) {
			delete(root, field)
		}
	}

	filtered, err := json.Marshal(root)
	if err != nil {
		return nil
	}
	return &Resource{
		ResourceID:   res.ResourceID,
		ResourceType: res.ResourceType,
		FHIRVersion:  res.FHIRVersion,
		Content:      filtered,
		CreatedAt:    now,
	}
}

// FilterResources filtra en lote, descartando los recursos bloqueados.
func FilterResources(in []Resource, rec *model.ConsentRecord, now time.Time) []Resource {
	if rec == nil || !rec.IsActiveAt(now) {
		return nil
	}
	out := make([]Resource, 0, len(in))
	for i := range in {
		if f := FilterResource(&in[i], rec, now); f != nil {
			out = append(out, *f)
		}
	}
	return out
}

// CategoryAllowed responde si la categoría está cubierta por el consent.
func CategoryAllowed(cat model.DataCategory, rec *model.ConsentRecord) bool {
	if rec == nil || !cat.Valid() {
		return false
	}
	return rec.Allows(cat)
}

// allUnrestricted reports whether every mapped field of the type is
// coverable by the ALL wildcard (no restricted categories involved).
func allUnrestricted(resourceType string) bool {
	for _, cat := range fieldCategories[resourceType] {
		if cat.Restricted() {
			return false
		}
	}
	return true
}
