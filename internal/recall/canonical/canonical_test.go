package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		command string
		want    string
		ok      bool
	}{
		{"docker run nginx", "docker_run", true},
		{"  DOCKER   Container Run --name web nginx ", "docker_run", true},
		{"docker container ls -a", "docker_ps", true},
		{"docker image rm alpine", "docker_rmi", true},
		{"docker-compose up -d", "docker_compose_up", true},
		{"docker compose down", "docker_compose_down", true},
		{"$ docker ps", "docker_ps", true},
		{"kubectl get po -n kube-system", "kubectl_get_pods", true},
		{"kubectl get pod web-0", "kubectl_get_pods", true},
		{"kubectl get deploy", "kubectl_get_deployments", true},
		{"kubectl get nodes", "kubectl_get", true},
		{"kubectl create cm app-config", "kubectl_create_configmap", true},
		{"kubectl port-forward svc/web 8080:80", "kubectl_port_forward", true},
		{"docker system prune", "docker_system_prune", true},
		{"docker version", "docker_version", true},
		{"docker-compose logs", "docker_compose_logs", true},
		{"kubectl version", "kubectl_version", true},
		{"docker", "", false},
		{"ls -la", "", false},
		{"", "", false},
		{"   ", "", false},
		{"dockerrun nginx", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			got, ok := Canonicalize(tt.command)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, Valid(tt.command))
		})
	}
}

func TestCategory(t *testing.T) {
	assert.Equal(t, CategoryDocker, Category("docker_run"))
	assert.Equal(t, CategoryDockerCompose, Category("docker_compose_up"))
	assert.Equal(t, CategoryKubernetes, Category("kubectl_apply"))
	assert.Equal(t, CategoryOther, Category("helm_install"))
	assert.Empty(t, Category(""))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Docker Run", Label("docker_run"))
	assert.Equal(t, "Docker-compose Up", Label("docker_compose_up"))
	assert.Equal(t, "Kubectl Get Pods", Label("kubectl_get_pods"))
	assert.Empty(t, Label(""))
}

func TestCommandsForCategory(t *testing.T) {
	compose := CommandsForCategory(CategoryDockerCompose)
	assert.Equal(t, []string{"docker_compose_up", "docker_compose_down", "docker_compose_build", "docker_compose_ps"}, compose)

	docker := CommandsForCategory(CategoryDocker)
	assert.Contains(t, docker, "docker_run")
	assert.NotContains(t, docker, "docker_compose_up")

	assert.Contains(t, CommandsForCategory(CategoryKubernetes), "kubectl_get_pods")
	assert.Nil(t, CommandsForCategory("helm"))
}

func TestExtractCommands(t *testing.T) {
	text := "First run `docker pull nginx` then `docker run -d nginx`.\n" +
		"docker ps\n" +
		"Check pods with:\n" +
		"kubectl get pods\n" +
		"and `docker run nginx` again."

	assert.Equal(t, []string{"docker_pull", "docker_run", "docker_ps", "kubectl_get_pods"}, ExtractCommands(text))
	assert.Nil(t, ExtractCommands(""))
	assert.Empty(t, ExtractCommands("nothing to see here"))
}

func TestExamples(t *testing.T) {
	ex := Examples("docker_run")
	assert.Len(t, ex, 3)
	ex[0] = "mutated"
	assert.Equal(t, "docker run nginx", Examples("docker_run")[0])
	assert.Empty(t, Examples("docker_tag"))
}
