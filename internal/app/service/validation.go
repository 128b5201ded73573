package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/kuotechnology-ui/kindworld-backend/internal/errors"
)

// contactEmailPattern 단순화한 RFC 5322 이메일 형식
var contactEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// 에러 필드명은 json 태그 기준
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("contact_email", func(fl validator.FieldLevel) bool {
		return contactEmailPattern.MatchString(fl.Field().String())
	})
	return v
}

// validateStruct 검증 실패 시 필드별 메시지를 담은 INVALID_INPUT 반환
// prefix는 중첩 목록 항목의 필드명 앞에 붙음 (예: "documents[0].")
func validateStruct(s interface{}, prefix string) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{prefix + "_": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		// 최상위 구조체 이름 제거 (SubmissionForm.address.city → address.city)
		ns := fe.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		fields[prefix+ns] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "필수 항목입니다"
	case "contact_email":
		return "올바른 이메일 형식이 아닙니다"
	case "min":
		return "최소 " + fe.Param() + "자 이상 입력해주세요"
	case "oneof":
		return "허용되지 않는 값입니다 (" + fe.Param() + ")"
	case "gte":
		return fe.Param() + " 이상이어야 합니다"
	default:
		return "올바르지 않은 값입니다"
	}
}

func mergeFields(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func invalidFields(fields map[string]string) error {
	return apperrors.Invalid(fields)
}
