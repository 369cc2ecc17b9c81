package ats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Platform
	}{
		{"greenhouse board", "https://boards.greenhouse.io/acme/jobs/4012345", PlatformGreenhouse},
		{"greenhouse company subdomain", "https://acme.greenhouse.io/jobs/12345", PlatformGreenhouse},
		{"lever posting", "https://jobs.lever.co/acme/a1b2c3d4", PlatformLever},
		{"workday tenant", "https://acme.wd5.myworkdayjobs.com/en-US/External/job/Intern_R-1234", PlatformWorkday},
		{"workday corporate", "https://www.workday.com/en-us/company/careers.html", PlatformWorkday},
		{"icims", "https://careers-acme.icims.com/jobs/2210/intern/job", PlatformICIMS},
		{"smartrecruiters", "https://jobs.smartrecruiters.com/Acme/743999900", PlatformSmartRecruiters},
		{"taleo", "https://acme.taleo.net/careersection/2/jobdetail.ftl?job=220011", PlatformTaleo},
		{"plain company site", "https://www.acme.com/careers", PlatformOther},
		{"uppercase host", "https://Boards.Greenhouse.IO/acme", PlatformGreenhouse},
		{"fragment in path not host", "https://example.com/blog/greenhouse.io-review", PlatformOther},
		{"unparseable falls back to substring", "boards.greenhouse.io/acme", PlatformGreenhouse},
		{"empty", "", PlatformOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.url))
		})
	}
}

func TestCompanyFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"greenhouse board slug", "https://boards.greenhouse.io/acme/jobs/4012345", "acme"},
		{"lever slug", "https://jobs.lever.co/acme/a1b2c3d4", "acme"},
		{"smartrecruiters slug lowercased", "https://jobs.smartrecruiters.com/Acme/743999900", "acme"},
		{"workday brand subdomain", "https://acme.wd5.myworkdayjobs.com/External", "acme"},
		{"workday shard prefix rejected", "https://wd5.myworkdayjobs.com/acme", ""},
		{"careers host", "https://careers.acme.com/jobs", "acme"},
		{"jobs host", "https://jobs.acme.io/", "acme"},
		{"www plus path", "https://www.acme.com/careers", "acme"},
		{"board root without slug", "https://boards.greenhouse.io", ""},
		{"generic label rejected", "https://careers.jobs.com/x", ""},
		{"ip host rejected", "http://127.0.0.1:8080/careers", ""},
		{"bare host without tld", "https://localhost/careers", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompanyFromURL(tt.url))
		})
	}
}
