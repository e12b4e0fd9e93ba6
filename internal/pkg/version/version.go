// Package version remote-task 실행 파일의 빌드 정보를 제공합니다.
//
// 링커 플래그(-ldflags -X)로 주입된 값을 우선 사용하고, 비어 있는 항목은
// Go 모듈의 VCS 메타데이터(debug.ReadBuildInfo)와 런타임 정보로 보강합니다.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"

	applog "github.com/darkkaiser/remote-task/pkg/log"
)

const unknown = "unknown"

// 빌드 시점에 주입되는 값입니다. 직접 참조하지 말고 Get()을 사용하십시오.
//
//	go build -ldflags "-X github.com/darkkaiser/remote-task/internal/pkg/version.appVersion=v1.2.0"
var (
	appVersion    = ""
	gitCommitHash = ""
	gitTreeState  = "" // clean 또는 dirty
	buildDate     = ""
)

// readBuildInfo 테스트에서 교체할 수 있도록 변수로 둡니다.
var readBuildInfo = debug.ReadBuildInfo

var (
	once   sync.Once
	cached Info
)

// Info 실행 파일의 빌드 정보입니다.
type Info struct {
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	BuildDate  string `json:"build_date"`
	GoVersion  string `json:"go_version"`
	OS         string `json:"os"`
	Arch       string `json:"arch"`
	DirtyBuild bool   `json:"dirty_build"`
}

// Get 빌드 정보를 반환합니다. 최초 호출 시 한 번만 계산합니다.
func Get() Info {
	once.Do(func() {
		cached = resolve(Info{
			Version:    strings.TrimSpace(appVersion),
			Commit:     strings.TrimSpace(gitCommitHash),
			BuildDate:  strings.TrimSpace(buildDate),
			DirtyBuild: strings.EqualFold(strings.TrimSpace(gitTreeState), "dirty"),
		})
	})
	return cached
}

// resolve 비어 있는 항목을 VCS 메타데이터와 런타임 정보로 채웁니다.
func resolve(bi Info) Info {
	bi.GoVersion = runtime.Version()
	bi.OS = runtime.GOOS
	bi.Arch = runtime.GOARCH

	if b, ok := readBuildInfo(); ok {
		for _, s := range b.Settings {
			switch s.Key {
			case "vcs.revision":
				if bi.Commit == "" {
					bi.Commit = s.Value
				}
			case "vcs.time":
				if bi.BuildDate == "" {
					bi.BuildDate = s.Value
				}
			case "vcs.modified":
				if s.Value == "true" {
					bi.DirtyBuild = true
				}
			}
		}
		if bi.Version == "" && b.Main.Version != "" && b.Main.Version != "(devel)" {
			bi.Version = b.Main.Version
		}
	}

	if bi.Version == "" {
		bi.Version = "dev"
	}
	if bi.Commit == "" {
		bi.Commit = unknown
	}
	if bi.BuildDate == "" {
		bi.BuildDate = unknown
	}

	return bi
}

// Fields 구조적 로깅용 필드로 변환합니다.
func (i Info) Fields() applog.Fields {
	return applog.Fields{
		"version":     i.Version,
		"commit":      i.Commit,
		"build_date":  i.BuildDate,
		"go_version":  i.GoVersion,
		"os":          i.OS,
		"arch":        i.Arch,
		"dirty_build": i.DirtyBuild,
	}
}

// String `remote-task --version` 출력용 한 줄 요약입니다.
func (i Info) String() string {
	v := i.Version
	if i.DirtyBuild {
		v += "+dirty"
	}

	commit := i.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}

	return fmt.Sprintf("%s (commit: %s, date: %s, %s %s/%s)", v, commit, i.BuildDate, i.GoVersion, i.OS, i.Arch)
}
