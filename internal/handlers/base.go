package handlers

import (
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	apperrors "inkpost/internal/errors"
	"inkpost/internal/middleware"
	"inkpost/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding rules on gin's validator.
// Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		// 错误信息里使用 json 字段名
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("tagname", validTagName)
	})
}

func validTagName(fl validator.FieldLevel) bool {
	name := strings.TrimSpace(fl.Field().String())
	return utf8.RuneCountInString(name) <= services.MaxTagLength
}

// bindJSON binds the request body into obj and converts binding failures to
// a validation error.
func bindJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		var verrs validator.ValidationErrors
		if apperrors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperrors.Validationf("%s failed on the '%s' rule", fe.Field(), fe.Tag())
		}
		return apperrors.Validation("Invalid input data")
	}
	return nil
}

// paramID parses a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.Validation("Invalid blog ID")
	}
	return uint(id), nil
}

func fail(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}
