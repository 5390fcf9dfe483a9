package api

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/travelfeed/internal/domain"
	"github.com/d60-Lab/travelfeed/internal/feed"
)

// RegisterValidators 注册自定义校验标签：votetype、audience
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("votetype", validateVoteType); err != nil {
		return err
	}
	return v.RegisterValidation("audience", validateAudience)
}

func validateVoteType(fl validator.FieldLevel) bool {
	_, err := domain.ParseVoteType(fl.Field().String())
	return err == nil
}

func validateAudience(fl validator.FieldLevel) bool {
	_, err := feed.ParseAudience(fl.Field().String())
	return err == nil
}
