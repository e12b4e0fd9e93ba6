package main

import (
	"os"

	"github.com/darkkaiser/remote-task/internal/contract"
	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
	"github.com/darkkaiser/remote-task/pkg/maputil"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// loadDescriptor JSON 작업 명세 파일을 읽어 검증된 TaskDescriptor를 반환합니다.
//
// timeout은 "10m" 같은 문자열을, env는 객체 또는 ["KEY=VALUE", ...] 목록을 받습니다.
// 명세에 없는 키가 있으면 오타로 보고 거부합니다.
func loadDescriptor(path string) (*contract.TaskDescriptor, error) {
	if path == "" {
		return nil, apperrors.New(apperrors.InvalidInput, "작업 명세 파일 경로가 지정되지 않았습니다")
	}

	// 키 구분자를 점(.)이 아닌 값으로 두어 env 키("a.b")가 중첩 경로로 해석되지 않게 한다.
	k := koanf.New("::")
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrapf(err, apperrors.NotFound, "작업 명세 파일을 찾을 수 없습니다: '%s'", path)
		}
		return nil, apperrors.Wrapf(err, apperrors.ParsingFailed, "작업 명세 파일을 해석할 수 없습니다: '%s'", path)
	}

	d, err := maputil.Decode[contract.TaskDescriptor](k.Raw(), maputil.WithErrorUnused(true))
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.InvalidInput, "작업 명세 형식이 올바르지 않습니다: '%s'", path)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}

	return d, nil
}
