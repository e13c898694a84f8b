package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.RAG.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.RAG.TopK)
	}
	if cfg.RAG.Metric != "cosine" {
		t.Errorf("expected Metric=cosine, got %s", cfg.RAG.Metric)
	}
	if cfg.Embedding.Model != "text-embedding-3-large" {
		t.Errorf("expected text-embedding-3-large, got %s", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimension != 3072 {
		t.Errorf("expected Dimension=3072, got %d", cfg.Embedding.Dimension)
	}
	if cfg.OpenAI.Deployment != "gpt-4o-mini" {
		t.Errorf("expected gpt-4o-mini, got %s", cfg.OpenAI.Deployment)
	}
	if cfg.Refine.TextLimit != 16000 {
		t.Errorf("expected TextLimit=16000, got %d", cfg.Refine.TextLimit)
	}
	if cfg.CFR.TextLimit != 25000 {
		t.Errorf("expected CFR TextLimit=25000, got %d", cfg.CFR.TextLimit)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "paramext.yaml")

	content := `
rag:
  top_k: 3
  metric: l2
parameters:
  - name: CFR
    definition: hospitalized case fatality rate
prompts:
  rag_system: extract the parameters
  refine: format as JSON
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.RAG.TopK != 3 {
		t.Errorf("expected TopK=3, got %d", cfg.RAG.TopK)
	}
	if cfg.RAG.Metric != "l2" {
		t.Errorf("expected Metric=l2, got %s", cfg.RAG.Metric)
	}
	if len(cfg.Parameters) != 1 || cfg.Parameters[0].Name != "CFR" {
		t.Errorf("unexpected parameters: %+v", cfg.Parameters)
	}
	if cfg.OpenAI.Deployment != "gpt-4o-mini" {
		t.Errorf("defaults not preserved: %s", cfg.OpenAI.Deployment)
	}
	if err := cfg.ValidateExtraction(); err != nil {
		t.Errorf("expected valid extraction config, got %v", err)
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "paramext.yaml")

	content := `
rag:
  top_k: 8
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.RAG.TopK != 8 {
		t.Errorf("expected TopK=8, got %d", cfg.RAG.TopK)
	}
}

func TestValidateFailsFast(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.ValidateExtraction(); err == nil {
		t.Error("expected error for missing parameters")
	}

	cfg.Parameters = []Parameter{{Name: "CFR"}}
	if err := cfg.ValidateExtraction(); err == nil {
		t.Error("expected error for missing prompts")
	}

	cfg.Prompts.RAGSystem = "sys"
	cfg.Prompts.Refine = "refine"
	if err := cfg.ValidateExtraction(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := cfg.ValidateRefine(); err == nil {
		t.Error("expected error for missing refine parameters")
	}
}

func TestEndpointEnvFallback(t *testing.T) {
	t.Setenv(EnvOpenAIEndpoint, "https://env.openai.azure.com")

	cfg := DefaultConfig()
	if got := cfg.OpenAI.ResolveEndpoint(); got != "https://env.openai.azure.com" {
		t.Errorf("env fallback = %s", got)
	}

	cfg.OpenAI.Endpoint = "https://explicit.openai.azure.com"
	if got := cfg.OpenAI.ResolveEndpoint(); got != "https://explicit.openai.azure.com" {
		t.Errorf("explicit endpoint should win, got %s", got)
	}
}
