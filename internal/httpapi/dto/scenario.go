package dto

import "github.com/bridgehealth/consentbridge/internal/scenario"

// ScenarioListResponse lista escenarios de un set del catálogo.
type ScenarioListResponse struct {
	Set       string              `json:"set,omitempty"`
	Scenarios []scenario.Scenario `json:"scenarios"`
	Count     int                 `json:"count"`
}

// ScenarioReplayResponse compara el resultado del motor contra lo esperado.
type ScenarioReplayResponse struct {
	ScenarioID       string `json:"scenarioId"`
	ExpectedDecision string `json:"expectedDecision"`
	ActualDecision   string `json:"actualDecision"`
	Reason           string `json:"reason,omitempty"`
	Match            bool   `json:"match"`
}
