package main_test

import (
	"os"
	"strings"
	"testing"
)

func readDeployFile(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("%s should exist: %v", name, err)
	}
	return string(data)
}

func TestDockerfileMultiStageBuild(t *testing.T) {
	content := readDeployFile(t, "Dockerfile")

	if !strings.Contains(content, "FROM golang:") {
		t.Error("Dockerfile should contain a Go builder stage (FROM golang:)")
	}

	// 最終ステージは軽量イメージであること
	var lastFrom string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "FROM ") {
			lastFrom = trimmed
		}
	}
	if !strings.Contains(lastFrom, "gcr.io/distroless") && !strings.Contains(lastFrom, "alpine") && !strings.Contains(lastFrom, "scratch") {
		t.Errorf("final stage should use a minimal base image (distroless/alpine/scratch), got: %s", lastFrom)
	}
}

func TestDockerfileBuildsAndRunsBinary(t *testing.T) {
	content := readDeployFile(t, "Dockerfile")

	if !strings.Contains(content, "denkiya") {
		t.Error("Dockerfile should build a binary named 'denkiya'")
	}
	if !strings.Contains(content, "ENTRYPOINT") && !strings.Contains(content, "CMD") {
		t.Error("Dockerfile should contain ENTRYPOINT or CMD")
	}
}

func TestDockerfileHealthcheck(t *testing.T) {
	content := readDeployFile(t, "Dockerfile")

	// distrolessにはシェルがないため、healthcheckサブコマンドを使うこと
	if !strings.Contains(content, "HEALTHCHECK") {
		t.Error("Dockerfile should define a HEALTHCHECK")
	}
	if !strings.Contains(content, "healthcheck") {
		t.Error("Dockerfile HEALTHCHECK should use the healthcheck subcommand")
	}
}

func TestDockerComposeServices(t *testing.T) {
	content := readDeployFile(t, "docker-compose.yml")

	// API・ワーカー・マイグレーション・DBの4サービス構成
	for _, svc := range []string{"api:", "worker:", "migrate:", "db:"} {
		if !strings.Contains(content, svc) {
			t.Errorf("docker-compose.yml should contain service %q", svc)
		}
	}

	if !strings.Contains(content, "postgres:") {
		t.Error("docker-compose.yml should use a PostgreSQL image for db")
	}
}

func TestDockerComposeWorkerSubcommand(t *testing.T) {
	content := readDeployFile(t, "docker-compose.yml")

	if !strings.Contains(content, "worker") {
		t.Error("docker-compose.yml worker service should use the 'worker' subcommand")
	}
}

func TestDockerComposeSessionSecretRequired(t *testing.T) {
	content := readDeployFile(t, "docker-compose.yml")

	// セッションシークレットをイメージに焼き込まず、環境変数で必須にすること
	if !strings.Contains(content, "SESSION_SECRET") {
		t.Error("docker-compose.yml should pass SESSION_SECRET via environment")
	}
}

func TestDockerComposeNetworkIsolation(t *testing.T) {
	content := readDeployFile(t, "docker-compose.yml")

	if !strings.Contains(content, "networks:") {
		t.Error("docker-compose.yml should define networks for egress control")
	}
	// DBは内部ネットワークのみに置くこと
	if !strings.Contains(content, "internal: true") {
		t.Error("docker-compose.yml should define an internal network (internal: true) for the database")
	}
	if !strings.Contains(content, "external") {
		t.Error("docker-compose.yml should define an external network for api/worker egress")
	}
}
