package main

import (
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

func callerIdentity() map[string]any {
	identity := map[string]any{"id": callerFlag, "displayName": nameFlag}
	if rolesFlag != "" {
		var roles []string
		for _, r := range strings.Split(rolesFlag, ",") {
			if t := strings.TrimSpace(r); t != "" {
				roles = append(roles, t)
			}
		}
		identity["roles"] = roles
	}
	return identity
}

// invokeTool POSTs a tool request and returns the raw envelope JSON.
func invokeTool(tool string, input map[string]any) (string, error) {
	if callerFlag == "" {
		return "", fmt.Errorf("--caller required")
	}
	resp, err := resty.New().R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"input": input, "callerIdentity": callerIdentity()}).
		Post(fmt.Sprintf("%s/api/tools/%s", apiFlag, tool))
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.String(), nil
}

func executeAction(action, confirmationID string) (string, error) {
	if callerFlag == "" {
		return "", fmt.Errorf("--caller required")
	}
	resp, err := resty.New().R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"action":         action,
			"confirmationId": confirmationID,
			"callerIdentity": callerIdentity(),
		}).
		Post(fmt.Sprintf("%s/api/tools/execute", apiFlag))
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.String(), nil
}

func doGet(url string) (string, error) {
	resp, err := resty.New().R().Get(url)
	if err != nil {
		return "", err
	}
	return resp.String(), nil
}
