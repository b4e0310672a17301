package config

import (
	"fmt"
	"os"
)

type DynamoConfig struct {
	ScenesTable   string
	ProjectsTable string
	AssetsTable   string
	LogsTable     string
	SettingsTable string
}

func GetDynamoConfig() (*DynamoConfig, error) {
	scenesTable := os.Getenv("DYNAMO_SCENES_TABLE")
	if scenesTable == "" {
		return nil, fmt.Errorf("DYNAMO_SCENES_TABLE must be set")
	}
	projectsTable := os.Getenv("DYNAMO_PROJECTS_TABLE")
	if projectsTable == "" {
		return nil, fmt.Errorf("DYNAMO_PROJECTS_TABLE must be set")
	}
	assetsTable := os.Getenv("DYNAMO_ASSETS_TABLE")
	if assetsTable == "" {
		return nil, fmt.Errorf("DYNAMO_ASSETS_TABLE must be set")
	}
	logsTable := os.Getenv("DYNAMO_LOGS_TABLE")
	if logsTable == "" {
		return nil, fmt.Errorf("DYNAMO_LOGS_TABLE must be set")
	}
	settingsTable := os.Getenv("DYNAMO_SETTINGS_TABLE")
	if settingsTable == "" {
		return nil, fmt.Errorf("DYNAMO_SETTINGS_TABLE must be set")
	}

	return &DynamoConfig{
		ScenesTable:   scenesTable,
		ProjectsTable: projectsTable,
		AssetsTable:   assetsTable,
		LogsTable:     logsTable,
		SettingsTable: settingsTable,
	}, nil
}
