package cron

import (
	"testing"
)

func TestRegistry_Register_Jobs(t *testing.T) {
	ran := false
	Register("testregistryjob", "@every 1h", func(args ...string) {
		ran = true
	})
	defer Unregister("testregistryjob")

	jobs := Jobs()
	j, ok := jobs["testregistryjob"]
	if !ok {
		t.Fatal("testregistryjob not in Jobs()")
	}
	if j.Schedule != "@every 1h" {
		t.Errorf("Schedule = %q, want @every 1h", j.Schedule)
	}
	j.Run()
	if !ran {
		t.Error("Run did not execute")
	}
}

func TestRegistry_Register_DuplicatePanics(t *testing.T) {
	Register("dupjob", "@hourly", func(...string) {})
	defer Unregister("dupjob")
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on duplicate")
		}
	}()
	Register("dupjob", "@daily", func(...string) {})
}

func TestRegistry_Register_BadSchedulePanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on bad schedule")
		}
		if _, ok := Lookup("badschedule"); ok {
			t.Error("job with bad schedule was registered")
		}
	}()
	Register("badschedule", "every now and then", func(...string) {})
}

func TestLookupDoesNotLock(t *testing.T) {
	Register("lookupjob", "@daily", func(...string) {})
	defer Unregister("lookupjob")
	if _, ok := Lookup("lookupjob"); !ok {
		t.Fatal("lookupjob not found")
	}
	Register("lookupjob2", "@daily", func(...string) {})
	Unregister("lookupjob2")
}

func TestStartCronSchedulesRegisteredJobs(t *testing.T) {
	Register("teststartjob", "@every 1h", func(...string) {})
	defer Unregister("teststartjob")

	c, err := StartCron(nil)
	if err != nil {
		t.Fatalf("StartCron: %v", err)
	}
	defer c.Stop()
	if n := len(c.Entries()); n < 1 {
		t.Errorf("entries = %d, want at least 1", n)
	}
}

func TestStartCronRejectsBadSchedule(t *testing.T) {
	Register("testbadschedule", "not a schedule", func(...string) {})
	defer Unregister("testbadschedule")

	if c, err := StartCron(nil); err == nil {
		c.Stop()
		t.Error("StartCron accepted an invalid schedule")
	}
}
