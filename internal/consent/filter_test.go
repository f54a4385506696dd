package consent

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bridgehealth/consentbridge/internal/domain/model"
)

func patientResource(t *testing.T) *Resource {
	t.Helper()
	content, err := json.Marshal(map[string]any{
		"resourceType": "Patient",
		"id":           "PAT-1",
		"name":         []map[string]any{{"family": "Doe"}},
		"birthDate":    "1980-01-01",
		"gender":       "female",
	})
	require.NoError(t, err)
	return &Resource{ResourceID: "PAT-1", ResourceType: "Patient", Content: content}
}

func TestFilterResource_AllWildcardPassesThrough(t *testing.T) {
	now := time.Now().UTC()
	rec := &model.ConsentRecord{
		Status:            model.ConsentActive,
		AllowedCategories: []model.DataCategory{model.CategoryAll},
		EffectiveAt:       now.Add(-time.Hour),
	}

	res := patientResource(t)
	out := FilterResource(res, rec, now)
	require.Same(t, res, out, "con ALL el recurso pasa intacto")
}

func TestFilterResource_RemovesUncoveredFields(t *testing.T) {
	now := time.Now().UTC()
	rec := &model.ConsentRecord{
		Status:            model.ConsentActive,
		AllowedCategories: []model.DataCategory{model.CategoryLabResults},
		EffectiveAt:       now.Add(-time.Hour),
	}

	out := FilterResource(patientResource(t), rec, now)
	require.NotNil(t, out)

	var root map[string]any
	require.NoError(t, json.Unmarshal(out.Content, &root))
	require.NotContains(t, root, "name", "campo DEMOGRAPHICS sin consent")
	require.NotContains(t, root, "birthDate")
	require.NotContains(t, root, "gender")
	require.Contains(t, root, "id", "campos estructurales pasan")
	require.Contains(t, root, "resourceType")
}

func TestFilterResource_InactiveConsentBlocks(t *testing.T) {
	now := time.Now().UTC()
	rec := &model.ConsentRecord{
		Status:            model.ConsentRevoked,
		AllowedCategories: []model.DataCategory{model.CategoryAll},
		EffectiveAt:       now.Add(-time.Hour),
	}
	require.Nil(t, FilterResource(patientResource(t), rec, now))
	require.Nil(t, FilterResource(nil, rec, now))
	require.Nil(t, FilterResource(patientResource(t), nil, now))
}

func TestFilterResource_UnparseableBlocks(t *testing.T) {
	now := time.Now().UTC()
	rec := &model.ConsentRecord{
		Status:            model.ConsentActive,
		AllowedCategories: []model.DataCategory{model.CategoryDemographics},
		EffectiveAt:       now.Add(-time.Hour),
	}
	res := &Resource{ResourceID: "X", ResourceType: "Patient", Content: []byte("{not json")}
	require.Nil(t, FilterResource(res, rec, now))
}

func TestFilterResources_Batch(t *testing.T) {
	now := time.Now().UTC()
	rec := &model.ConsentRecord{
		Status:            model.ConsentActive,
		AllowedCategories: []model.DataCategory{model.CategoryDemographics},
		EffectiveAt:       now.Add(-time.Hour),
	}

	in := []Resource{
		*patientResource(t),
		{ResourceID: "bad", ResourceType: "Patient", Content: []byte("{")},
	}
	out := FilterResources(in, rec, now)
	require.Len(t, out, 1, "los recursos ilegibles se descartan")
	require.Equal(t, "PAT-1", out[0].ResourceID)

	require.Nil(t, FilterResources(in, nil, now))
}

func TestCategoryAllowed(t *testing.T) {
	rec := &model.ConsentRecord{AllowedCategories: []model.DataCategory{model.CategoryAll}}

	require.True(t, CategoryAllowed(model.CategoryLabResults, rec))
	require.False(t, CategoryAllowed(model.CategorySubstanceUse, rec))
	require.False(t, CategoryAllowed("GENOMICS", rec))
	require.False(t, CategoryAllowed(model.CategoryLabResults, nil))
}
