package util

import (
	"os"
	"testing"
)

func TestConfigConstants(t *testing.T) {
	if Name != "fedfit" {
		t.Errorf("Expected Name 'fedfit', got '%s'", Name)
	}

	if ConfigFileName != "config.yaml" {
		t.Errorf("Expected ConfigFileName 'config.yaml', got '%s'", ConfigFileName)
	}
}

func TestReadConfWithYaml(t *testing.T) {
	yamlContent := `
conf:
  host: 127.0.0.1
  httpPort: 9999
  sslDomain: example.com
  withFederation: true
`
	err := os.WriteFile("config.yaml", []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config: %v", err)
	}
	defer os.Remove("config.yaml")

	config, err := ReadConf()
	if err != nil {
		t.Fatalf("ReadConf failed: %v", err)
	}

	if config.Conf.Host != "127.0.0.1" {
		t.Errorf("Expected Host '127.0.0.1', got '%s'", config.Conf.Host)
	}

	if config.Conf.HttpPort != 9999 {
		t.Errorf("Expected HttpPort 9999, got %d", config.Conf.HttpPort)
	}

	if config.Conf.SslDomain != "example.com" {
		t.Errorf("Expected SslDomain 'example.com', got '%s'", config.Conf.SslDomain)
	}

	if !config.Conf.WithFederation {
		t.Error("Expected WithFederation to be true")
	}
}

func TestReadConfWithEnvOverrides(t *testing.T) {
	yamlContent := `
conf:
  host: 127.0.0.1
  httpPort: 9999
  sslDomain: example.com
  withFederation: false
`
	err := os.WriteFile("config.yaml", []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config: %v", err)
	}
	defer os.Remove("config.yaml")

	os.Setenv("FEDFIT_HOST", "192.168.1.1")
	os.Setenv("FEDFIT_HTTPPORT", "8080")
	os.Setenv("FEDFIT_SSLDOMAIN", "test.example.com")
	os.Setenv("FEDFIT_WITH_FEDERATION", "true")

	defer func() {
		os.Unsetenv("FEDFIT_HOST")
		os.Unsetenv("FEDFIT_HTTPPORT")
		os.Unsetenv("FEDFIT_SSLDOMAIN")
		os.Unsetenv("FEDFIT_WITH_FEDERATION")
	}()

	config, err := ReadConf()
	if err != nil {
		t.Fatalf("ReadConf failed: %v", err)
	}

	if config.Conf.Host != "192.168.1.1" {
		t.Errorf("Expected Host '192.168.1.1' from env, got '%s'", config.Conf.Host)
	}

	if config.Conf.HttpPort != 8080 {
		t.Errorf("Expected HttpPort 8080 from env, got %d", config.Conf.HttpPort)
	}

	if config.Conf.SslDomain != "test.example.com" {
		t.Errorf("Expected SslDomain 'test.example.com' from env, got '%s'", config.Conf.SslDomain)
	}

	if !config.Conf.WithFederation {
		t.Error("Expected WithFederation to be true from env")
	}
}

func TestReadConfFederationFalseEnv(t *testing.T) {
	yamlContent := `
conf:
  host: 127.0.0.1
  httpPort: 9999
  sslDomain: example.com
  withFederation: true
`
	err := os.WriteFile("config.yaml", []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config: %v", err)
	}
	defer os.Remove("config.yaml")

	// Env is not "true", so it should use the YAML value
	os.Setenv("FEDFIT_WITH_FEDERATION", "false")
	defer os.Unsetenv("FEDFIT_WITH_FEDERATION")

	config, err := ReadConf()
	if err != nil {
		t.Fatalf("ReadConf failed: %v", err)
	}

	if !config.Conf.WithFederation {
		t.Error("Expected WithFederation to be true from YAML when env is not 'true'")
	}
}

func TestReadConfInvalidYaml(t *testing.T) {
	invalidYaml := `
conf:
  host: 127.0.0.1
  httpPort: not_a_number
  invalid yaml structure
`
	err := os.WriteFile("config.yaml", []byte(invalidYaml), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config: %v", err)
	}
	defer os.Remove("config.yaml")

	_, err = ReadConf()
	if err == nil {
		t.Error("Expected error when parsing invalid YAML")
	}
}

func TestAppConfigStruct(t *testing.T) {
	config := &AppConfig{}
	config.Conf.Host = "localhost"
	config.Conf.HttpPort = 80
	config.Conf.SslDomain = "test.com"
	config.Conf.WithFederation = true
	config.Conf.Closed = true

	if config.Conf.Host != "localhost" {
		t.Errorf("Expected Host 'localhost', got '%s'", config.Conf.Host)
	}
	if config.Conf.HttpPort != 80 {
		t.Errorf("Expected HttpPort 80, got %d", config.Conf.HttpPort)
	}
	if config.Conf.SslDomain != "test.com" {
		t.Errorf("Expected SslDomain 'test.com', got '%s'", config.Conf.SslDomain)
	}
	if !config.Conf.WithFederation {
		t.Error("Expected WithFederation to be true")
	}
	if !config.Conf.Closed {
		t.Error("Expected Closed to be true")
	}
}
