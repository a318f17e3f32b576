package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
)

func TestDotenvQuoting_ReachesConfig(t *testing.T) {
	content := "ORDS_DATA_PROVIDER='Repair Café \"Downtown\"'\n" +
		"ORDS_ITEM_TYPES=\"Appliance, Bike\"\n" +
		"CONFIDENCE_LEVEL=99%\n"
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("Error reading env: %v", err)
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := fromEnv(t.TempDir())
	if err != nil {
		t.Fatalf("Expected config, got %v", err)
	}

	expected := `Repair Café "Downtown"`
	if cfg.ORDS.DataProvider != expected {
		t.Errorf("Expected %s, got %s", expected, cfg.ORDS.DataProvider)
	}
	if len(cfg.ORDS.ItemTypes) != 2 || cfg.ORDS.ItemTypes[1] != "Bike" {
		t.Errorf("Expected [Appliance Bike], got %v", cfg.ORDS.ItemTypes)
	}
	if cfg.Confidence != 99 {
		t.Errorf("Expected confidence 99, got %d", cfg.Confidence)
	}
}
