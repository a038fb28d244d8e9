// Package canonical maps raw Docker and Kubernetes command lines to stable
// skill keys such as "docker_run" or "kubectl_get_pods", so that every
// variation of a command feeds the same mastery record.
package canonical

import (
	"regexp"
	"strings"
)

// Categories of canonical commands.
const (
	CategoryDocker        = "docker"
	CategoryDockerCompose = "docker-compose"
	CategoryKubernetes    = "kubernetes"
	CategoryOther         = "other"
)

type rule struct {
	key      string
	patterns []*regexp.Regexp
}

func r(key string, patterns ...string) rule {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(`(?i)^` + p)
	}
	return rule{key: key, patterns: compiled}
}

// Rules are tried in order; more specific forms come before general ones.
var dockerRules = []rule{
	r("docker_run", `docker\s+run\b`, `docker\s+container\s+run\b`),
	r("docker_ps", `docker\s+ps\b`, `docker\s+container\s+ls\b`, `docker\s+container\s+list\b`),
	r("docker_stop", `docker\s+stop\b`, `docker\s+container\s+stop\b`),
	r("docker_rm", `docker\s+rm\b`, `docker\s+container\s+rm\b`, `docker\s+container\s+remove\b`),
	r("docker_exec", `docker\s+exec\b`, `docker\s+container\s+exec\b`),
	r("docker_logs", `docker\s+logs\b`, `docker\s+container\s+logs\b`),
	r("docker_inspect", `docker\s+inspect\b`, `docker\s+container\s+inspect\b`),

	r("docker_build", `docker\s+build\b`, `docker\s+image\s+build\b`),
	r("docker_pull", `docker\s+pull\b`, `docker\s+image\s+pull\b`),
	r("docker_push", `docker\s+push\b`, `docker\s+image\s+push\b`),
	r("docker_images", `docker\s+images\b`, `docker\s+image\s+ls\b`, `docker\s+image\s+list\b`),
	r("docker_rmi", `docker\s+rmi\b`, `docker\s+image\s+rm\b`, `docker\s+image\s+remove\b`),
	r("docker_tag", `docker\s+tag\b`, `docker\s+image\s+tag\b`),

	r("docker_volume_create", `docker\s+volume\s+create\b`),
	r("docker_volume_ls", `docker\s+volume\s+ls\b`, `docker\s+volume\s+list\b`),
	r("docker_volume_rm", `docker\s+volume\s+rm\b`, `docker\s+volume\s+remove\b`),

	r("docker_network_create", `docker\s+network\s+create\b`),
	r("docker_network_ls", `docker\s+network\s+ls\b`, `docker\s+network\s+list\b`),
	r("docker_network_rm", `docker\s+network\s+rm\b`, `docker\s+network\s+remove\b`),

	r("docker_compose_up", `docker-compose\s+up\b`, `docker\s+compose\s+up\b`),
	r("docker_compose_down", `docker-compose\s+down\b`, `docker\s+compose\s+down\b`),
	r("docker_compose_build", `docker-compose\s+build\b`, `docker\s+compose\s+build\b`),
	r("docker_compose_ps", `docker-compose\s+ps\b`, `docker\s+compose\s+ps\b`),
}

var kubernetesRules = []rule{
	r("kubectl_get_pods", `kubectl\s+get\s+pods?\b`, `kubectl\s+get\s+po\b`),
	r("kubectl_describe_pod", `kubectl\s+describe\s+pods?\b`, `kubectl\s+describe\s+po\b`),
	r("kubectl_delete_pod", `kubectl\s+delete\s+pods?\b`, `kubectl\s+delete\s+po\b`),
	r("kubectl_logs", `kubectl\s+logs\b`),
	r("kubectl_exec", `kubectl\s+exec\b`),
	r("kubectl_port_forward", `kubectl\s+port-forward\b`),

	r("kubectl_create_deployment", `kubectl\s+create\s+deployment\b`, `kubectl\s+create\s+deploy\b`),
	r("kubectl_get_deployments", `kubectl\s+get\s+deployments?\b`, `kubectl\s+get\s+deploy\b`),
	r("kubectl_scale", `kubectl\s+scale\b`),
	r("kubectl_rollout", `kubectl\s+rollout\b`),
	r("kubectl_set_image", `kubectl\s+set\s+image\b`),

	r("kubectl_expose", `kubectl\s+expose\b`),
	r("kubectl_get_services", `kubectl\s+get\s+services?\b`, `kubectl\s+get\s+svc\b`),

	r("kubectl_create_configmap", `kubectl\s+create\s+configmap\b`, `kubectl\s+create\s+cm\b`),
	r("kubectl_create_secret", `kubectl\s+create\s+secret\b`),

	r("kubectl_apply", `kubectl\s+apply\b`),
	r("kubectl_get", `kubectl\s+get\b`),
	r("kubectl_describe", `kubectl\s+describe\b`),
	r("kubectl_delete", `kubectl\s+delete\b`),
	r("kubectl_edit", `kubectl\s+edit\b`),
}

var allRules = append(append([]rule{}, dockerRules...), kubernetesRules...)

var (
	backtickRe = regexp.MustCompile("`([^`]+)`")
	toolRe     = regexp.MustCompile(`(?i)docker|kubectl`)
)

// Canonicalize returns the skill key for a raw command, or false when the
// command is not a recognisable docker, docker-compose or kubectl call.
func Canonicalize(command string) (string, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(command))
	cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "$"))
	if cleaned == "" {
		return "", false
	}
	for _, rl := range allRules {
		for _, p := range rl.patterns {
			if p.MatchString(cleaned) {
				return rl.key, true
			}
		}
	}
	return basicCanonical(cleaned)
}

// Valid reports whether command canonicalizes.
func Valid(command string) bool {
	_, ok := Canonicalize(command)
	return ok
}

// basicCanonical derives a key from the leading words when no rule matched.
func basicCanonical(cleaned string) (string, bool) {
	parts := strings.Fields(cleaned)
	if len(parts) < 2 {
		return "", false
	}
	switch parts[0] {
	case "docker-compose":
		return "docker_compose_" + parts[1], true
	case "docker", "kubectl":
		if len(parts) >= 3 {
			return parts[0] + "_" + parts[1] + "_" + parts[2], true
		}
		return parts[0] + "_" + parts[1], true
	}
	return "", false
}

// Category groups a canonical key by tool.
func Category(key string) string {
	switch {
	case key == "":
		return ""
	case strings.HasPrefix(key, "docker_compose_"):
		return CategoryDockerCompose
	case strings.HasPrefix(key, "docker_"):
		return CategoryDocker
	case strings.HasPrefix(key, "kubectl_"):
		return CategoryKubernetes
	default:
		return CategoryOther
	}
}

// Categories lists the known categories in display order.
func Categories() []string {
	return []string{CategoryDocker, CategoryDockerCompose, CategoryKubernetes}
}

// Label is the human readable form: "docker_compose_up" -> "Docker-compose Up".
func Label(key string) string {
	if key == "" {
		return ""
	}
	s := strings.ReplaceAll(key, "_", " ")
	s = strings.ReplaceAll(s, "docker compose", "docker-compose")
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// CommandsForCategory lists the rule keys of a category.
func CommandsForCategory(category string) []string {
	var src []rule
	switch category {
	case CategoryDocker, CategoryDockerCompose:
		src = dockerRules
	case CategoryKubernetes:
		src = kubernetesRules
	default:
		return nil
	}
	var out []string
	for _, rl := range src {
		if Category(rl.key) == category {
			out = append(out, rl.key)
		}
	}
	return out
}

// ExtractCommands finds the canonical commands mentioned in lesson text,
// both in backtick spans and on lines that name a tool. Order of first
// appearance is kept and duplicates dropped.
func ExtractCommands(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if key, ok := Canonicalize(s); ok && !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	for _, m := range backtickRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, line := range strings.Split(text, "\n") {
		if toolRe.MatchString(line) {
			add(line)
		}
	}
	return out
}

var examples = map[string][]string{
	"docker_run":       {"docker run nginx", "docker run -d -p 80:80 nginx", "docker container run --name web nginx"},
	"docker_ps":        {"docker ps", "docker ps -a", "docker container ls"},
	"docker_build":     {"docker build -t myapp .", "docker build -f Dockerfile.prod -t myapp:latest ."},
	"kubectl_get_pods": {"kubectl get pods", "kubectl get po -n default", "kubectl get pods --all-namespaces"},
	"kubectl_apply":    {"kubectl apply -f deployment.yaml", "kubectl apply -f ./k8s/", "kubectl apply -f https://example.com/manifest.yaml"},
}

// Examples returns sample invocations for a key, if any are known.
func Examples(key string) []string {
	return append([]string(nil), examples[key]...)
}
