package handler

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"

	"github.com/Olamide1/loopline/internal/model"
	"github.com/Olamide1/loopline/internal/service/identity"
)

// 领域校验 tag
const (
	TagNotificationKind = "notification_kind" // 通知类型
	TagUserStatus       = "user_status"       // online/offline/away
	TagRef              = "ref"               // 可解析为 ID 的引用
)

// Trans 当前语言的校验错误翻译器
var Trans ut.Translator

// domainRule 自定义校验规则与各语言提示
type domainRule struct {
	tag string
	fn  validator.Func
	zh  string
	en  string
}

var domainRules = []domainRule{
	{
		tag: TagNotificationKind,
		fn: func(fl validator.FieldLevel) bool {
			return model.NotificationKind(fl.Field().String()).Valid()
		},
		zh: "{0}必须是 thread_reply、mention、reaction、dm 或 channel_message",
		en: "{0} must be one of thread_reply, mention, reaction, dm, channel_message",
	},
	{
		tag: TagUserStatus,
		fn: func(fl validator.FieldLevel) bool {
			_, ok := model.ParseUserStatus(fl.Field().String())
			return ok
		},
		zh: "{0}只能是 online、offline 或 away",
		en: "{0} must be online, offline or away",
	},
	{
		tag: TagRef,
		fn: func(fl validator.FieldLevel) bool {
			return identity.Normalize(fl.Field().Interface()) != identity.Unresolved
		},
		zh: "{0}不是有效的标识",
		en: "{0} is not a valid id",
	},
}

// InitTrans 注册领域校验规则，并按 locale（"zh" 或 "en"）初始化错误翻译
func InitTrans(locale string) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}

	// 错误里的字段名取 json tag，查询参数取 form tag
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	uni := ut.New(en.New(), zh.New(), en.New())
	trans, found := uni.GetTranslator(locale)
	if !found {
		return fmt.Errorf("uni.GetTranslator(%s) failed", locale)
	}

	var err error
	if locale == "zh" {
		err = zh_translations.RegisterDefaultTranslations(v, trans)
	} else {
		err = en_translations.RegisterDefaultTranslations(v, trans)
	}
	if err != nil {
		return err
	}

	for _, rule := range domainRules {
		if err := v.RegisterValidation(rule.tag, rule.fn); err != nil {
			return fmt.Errorf("register %s: %w", rule.tag, err)
		}
		text := rule.en
		if locale == "zh" {
			text = rule.zh
		}
		if err := v.RegisterTranslation(rule.tag, trans, registerText(rule.tag, text), translateField); err != nil {
			return fmt.Errorf("translate %s: %w", rule.tag, err)
		}
	}
	Trans = trans
	return nil
}

func registerText(tag, text string) validator.RegisterTranslationsFunc {
	return func(t ut.Translator) error {
		return t.Add(tag, text, true)
	}
}

func translateField(t ut.Translator, fe validator.FieldError) string {
	msg, err := t.T(fe.Tag(), fe.Field())
	if err != nil {
		return fe.Error()
	}
	return msg
}

// RemoveTopStruct 去掉 "Struct.field" 中的结构体前缀
func RemoveTopStruct(fields map[string]string) map[string]string {
	res := make(map[string]string, len(fields))
	for field, msg := range fields {
		res[field[strings.Index(field, ".")+1:]] = msg
	}
	return res
}

// failedTag 第一个未通过的校验 tag
func failedTag(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return ""
	}
	return errs[0].Tag()
}
