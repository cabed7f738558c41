package web

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/yosefanaliza/black-coordinates-list/internal/core/model"
)

// CustomValidator 实现echo.Validator接口
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator 创建校验器，注册 ipv4quad 标签，字段名取自json标签
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// 标签名固定且函数非空，注册不会失败
	_ = v.RegisterValidation("ipv4quad", func(fl validator.FieldLevel) bool {
		return model.IsIPv4(fl.Field().String())
	})

	return &CustomValidator{validator: v}
}

// Validate 实现echo.Validator接口
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// BindAndValidate 绑定并校验请求体，任何失败都返回422
func BindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		message := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			message = fmt.Sprint(he.Message)
		}
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid request body: "+message).SetInternal(err)
	}
	if err := c.Validate(dst); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, ValidationMessage(err)).SetInternal(err)
	}
	return nil
}

// ValidationMessage 把校验错误转换为可读的提示
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fieldMessage(fe))
	}
	return strings.Join(messages, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: field required", fe.Field())
	case "ipv4quad":
		return fmt.Sprintf("%s: %s", fe.Field(), model.ErrInvalidIPv4.Error())
	case "gte":
		return fmt.Sprintf("%s: must be greater than or equal to %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s: must be less than or equal to %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s: failed %s validation", fe.Field(), fe.Tag())
	}
}
