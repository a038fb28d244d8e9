package mastery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgirmay/gaia-recall/internal/recall/canonical"
	"github.com/jgirmay/gaia-recall/internal/recall/models"
)

func statsFixture() []*models.CommandMastery {
	run := scored("docker_run", 100, daysAgo(1))
	run.Category = canonical.CategoryDocker
	run.FirstMasteredAt = daysAgo(10)

	pods := scored("kubectl_get_pods", 40, daysAgo(20))
	pods.Category = canonical.CategoryKubernetes

	up := scored("docker_compose_up", 100, daysAgo(1))
	up.Category = ""
	up.FirstMasteredAt = daysAgo(1)

	return []*models.CommandMastery{run, pods, up}
}

func TestStats(t *testing.T) {
	tr := NewTracker(Config{})
	st := tr.Stats(statsFixture(), "", now)

	assert.Equal(t, 3, st.TotalCommands)
	assert.Equal(t, 2, st.Mastered)
	assert.Equal(t, 1, st.NeedsPractice)
	assert.Equal(t, 66.67, st.MasteryPercentage)
	assert.Equal(t, 1, st.Shields[models.ShieldSilver])
	assert.Equal(t, 0, st.Shields[models.ShieldBronze])

	assert.Equal(t, RecentProgress{CommandsPracticed: 2, NewMasteries: 1, AverageScore: 100}, st.Recent)

	require.Len(t, st.Categories, 3)
	assert.Equal(t, CategoryStats{Category: canonical.CategoryDocker, Total: 1, Mastered: 1, Percentage: 100}, st.Categories[0])
	assert.Equal(t, CategoryStats{Category: canonical.CategoryDockerCompose, Total: 1, Mastered: 1, Percentage: 100}, st.Categories[1])
	assert.Equal(t, CategoryStats{Category: canonical.CategoryKubernetes, Total: 1}, st.Categories[2])
}

func TestStatsCategoryFilter(t *testing.T) {
	tr := NewTracker(Config{})
	st := tr.Stats(statsFixture(), canonical.CategoryKubernetes, now)

	assert.Equal(t, 1, st.TotalCommands)
	assert.Zero(t, st.Mastered)
	assert.Zero(t, st.MasteryPercentage)
	assert.Len(t, st.Categories, 3)
}

func TestStatsEmpty(t *testing.T) {
	st := NewTracker(Config{}).Stats(nil, "", now)
	assert.Zero(t, st.TotalCommands)
	assert.Zero(t, st.MasteryPercentage)
	assert.Len(t, st.Shields, 4)
}

func TestCheckGate(t *testing.T) {
	tr := NewTracker(Config{})

	run := newMastery("docker_run")
	run.SetContexts(models.ContextPerformance{models.ContextPractice: {Attempts: 3, Successes: 3}})
	run.TotalAttempts, run.SuccessfulAttempts = 3, 3
	run.ProficiencyScore = 100
	run.LastUsedAt = daysAgo(0.04)

	pods := scored("kubectl_get_pods", 40, daysAgo(20))

	masteries := map[string]*models.CommandMastery{
		"docker_run":       run,
		"kubectl_get_pods": pods,
	}

	res := tr.CheckGate([]string{"docker_run", "kubectl_get_pods", "docker_ps", "docker_run"}, masteries, now)
	assert.Equal(t, GateBlocked, res.Status)
	assert.Equal(t, []string{"kubectl_get_pods", "docker_ps"}, res.BlockedCommands)
	assert.Nil(t, res.Commands)
	require.Len(t, res.RemedialDrills, 2)
	assert.Equal(t, RemedialDrill{
		Command:        "kubectl_get_pods",
		Label:          "Kubectl Get Pods",
		CurrentScore:   40,
		AttemptsNeeded: 4,
		Examples:       canonical.Examples("kubectl_get_pods"),
	}, res.RemedialDrills[0])
	assert.Zero(t, res.RemedialDrills[1].CurrentScore)
	assert.NotNil(t, pods.LastDecayCalculationAt, "gate applies decay before checking")

	ok := tr.CheckGate([]string{"docker_run"}, masteries, now)
	assert.Equal(t, GateOK, ok.Status)
	assert.Equal(t, []string{"Docker Run"}, ok.Commands)

	none := tr.CheckGate(nil, masteries, now)
	assert.Equal(t, GateOK, none.Status)
	assert.Equal(t, "No command requirements", none.Message)
}
