package model

import "fmt"

// DataCategory classifies clinical data for consent decisions.
// CategoryAll is a wildcard: a consent that allows it allows everything.
type DataCategory string

const (
	CategoryAll            DataCategory = "ALL"
	CategoryDemographics   DataCategory = "DEMOGRAPHICS"
	CategoryClinicalNotes  DataCategory = "CLINICAL_NOTES"
	CategoryLabResults     DataCategory = "LAB_RESULTS"
	CategoryMedications    DataCategory = "MEDICATIONS"
	CategoryAllergies      DataCategory = "ALLERGIES"
	CategoryImmunizations  DataCategory = "IMMUNIZATIONS"
	CategoryProcedures     DataCategory = "PROCEDURES"
	CategoryDiagnoses      DataCategory = "DIAGNOSES"
	CategoryVitalSigns     DataCategory = "VITAL_SIGNS"
	CategoryImagingReports DataCategory = "IMAGING_REPORTS"

	// Specially protected categories. MENTAL_HEALTH and SUBSTANCE_USE
	// (42 CFR Part 2) are never implied by ALL-category role access alone;
	// they must be named explicitly in the consent.
	CategoryMentalHealth DataCategory = "MENTAL_HEALTH"
	CategorySubstanceUse DataCategory = "SUBSTANCE_USE"
)

// AllCategories lists every valid category, wildcard included.
var AllCategories = []DataCategory{
	CategoryAll,
	CategoryDemographics,
	CategoryClinicalNotes,
	CategoryLabResults,
	CategoryMedications,
	CategoryAllergies,
	CategoryImmunizations,
	CategoryProcedures,
	CategoryDiagnoses,
	CategoryVitalSigns,
	CategoryImagingReports,
	CategoryMentalHealth,
	CategorySubstanceUse,
}

var categorySet = func() map[DataCategory]struct{} {
	m := make(map[DataCategory]struct{}, len(AllCategories))
	for _, c := range AllCategories {
		m[c] = struct{}{}
	}
	return m
}()

// Valid reporta si la categoría pertenece al enum.
func (c DataCategory) Valid() bool {
	_, ok := categorySet[c]
	return ok
}

// Restricted reports whether the category requires an explicit grant
// (cannot be covered by the ALL wildcard).
func (c DataCategory) Restricted() bool {
	return c == CategoryMentalHealth || c == CategorySubstanceUse
}

// ParseDataCategory validates and converts a raw string.
func ParseDataCategory(s string) (DataCategory, error) {
	c := DataCategory(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown data category %q", s)
	}
	return c, nil
}
