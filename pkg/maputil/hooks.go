package maputil

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

var (
	durationType  = reflect.TypeOf(time.Duration(0))
	stringMapType = reflect.TypeOf(map[string]string{})
)

// stringToSliceHookFunc 쉼표(,)로 구분된 문자열을 슬라이스로 변환합니다.
// []byte 대상은 분할하지 않고 mapstructure 기본 로직에 맡깁니다.
func stringToSliceHookFunc(trimSpace bool) mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		if t.Kind() != reflect.Slice {
			return data, nil
		}
		if t.Elem().Kind() == reflect.Uint8 {
			return data, nil
		}

		s := reflect.ValueOf(data).String()
		if s == "" {
			return []string{}, nil
		}

		parts := strings.Split(s, ",")
		if trimSpace {
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
		}
		return parts, nil
	}
}

// stringToDurationHookFunc 문자열을 time.Duration으로 변환합니다.
//
// 정확히 time.Duration 타입인 필드만 대상으로 하며, 다른 int64 필드는 건드리지 않습니다.
// 파싱할 수 없는 문자열은 그대로 넘겨서 mapstructure가 에러를 보고하게 합니다.
func stringToDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != durationType {
			return data, nil
		}

		d, err := time.ParseDuration(strings.TrimSpace(reflect.ValueOf(data).String()))
		if err != nil {
			return data, nil
		}
		return d, nil
	}
}

// envListToMapHookFunc ["KEY=VALUE", ...] 형식의 목록을 map[string]string으로 변환합니다.
//
// 컨테이너 환경 변수를 docker 스타일 목록으로 적은 작업 명세를 그대로 받아들이기 위한 훅입니다.
// '='이 없는 항목은 에러로 처리하며, 값에 포함된 '='은 첫 번째 것만 구분자로 사용합니다.
func envListToMapHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != stringMapType {
			return data, nil
		}
		if f.Kind() != reflect.Slice && f.Kind() != reflect.Array {
			return data, nil
		}

		v := reflect.ValueOf(data)
		out := make(map[string]string, v.Len())
		for i := 0; i < v.Len(); i++ {
			item := fmt.Sprint(v.Index(i).Interface())
			key, value, ok := strings.Cut(item, "=")
			if !ok || strings.TrimSpace(key) == "" {
				return nil, fmt.Errorf("환경 변수 항목은 KEY=VALUE 형식이어야 합니다: '%s'", item)
			}
			out[strings.TrimSpace(key)] = value
		}
		return out, nil
	}
}
