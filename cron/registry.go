package cron

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"storefront.GO/core/registry"
)

// Job holds schedule and run function. Run receives the CLI arguments when a job is run
// by name and none when the scheduler fires it.
type Job struct {
	Schedule string
	Run      func(...string)
}

var mu sync.Mutex

// Same grammar cron.New() accepts: five fields plus @every and @hourly style descriptors.
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Register adds a cron job. Call from init() in custom packages. Panics if the registry is
// locked, the name is taken or the schedule does not parse.
func Register(name string, schedule string, run func(...string)) {
	if _, err := scheduleParser.Parse(schedule); err != nil {
		panic(fmt.Sprintf("cron/registry: job %s: bad schedule %q: %v", name, schedule, err))
	}
	mu.Lock()
	defer mu.Unlock()
	if registry.GlobalRegistry.IsLocked(registry.KeyRegistryCron) {
		panic("cron/registry: locked (register only during init before StartCron)")
	}
	jobs := getJobs()
	if _, ok := jobs[name]; ok {
		panic("cron/registry: duplicate job " + name)
	}
	jobs[name] = Job{Schedule: schedule, Run: run}
	registry.GlobalRegistry.SetGlobal(registry.KeyRegistryCron, jobs)
}

// Unregister removes a job (for tests).
func Unregister(name string) {
	mu.Lock()
	defer mu.Unlock()
	registry.GlobalRegistry.UnlockForTesting(registry.KeyRegistryCron)
	jobs := getJobs()
	delete(jobs, name)
	registry.GlobalRegistry.SetGlobal(registry.KeyRegistryCron, jobs)
}

func getJobs() map[string]Job {
	if v, ok := registry.GlobalRegistry.GetGlobal(registry.KeyRegistryCron); ok && v != nil {
		return v.(map[string]Job)
	}
	return make(map[string]Job)
}

// Lookup returns the job registered under name without locking the registry.
func Lookup(name string) (Job, bool) {
	mu.Lock()
	defer mu.Unlock()
	j, ok := getJobs()[name]
	return j, ok
}

// Jobs returns a copy of the registered jobs. Locks the cron registry on first call.
func Jobs() map[string]Job {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]Job)
	for k, v := range getJobs() {
		out[k] = v
	}
	if !registry.GlobalRegistry.IsLocked(registry.KeyRegistryCron) {
		registry.GlobalRegistry.Lock(registry.KeyRegistryCron)
	}
	return out
}
