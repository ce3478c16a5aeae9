package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"gesushell/engine"
)

// AwardResult reports an XP award. Rewarded is false when the award was
// skipped because the task had already paid out.
type AwardResult struct {
	Rewarded bool
	Result   engine.XPResult
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed: status %d", resp.StatusCode)
	}
	if target == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(target)
}
