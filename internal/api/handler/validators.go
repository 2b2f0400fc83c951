package handler

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/FiveCrux/FiveCrux-sub000/pkg/discord"
)

// RegisterValidators installs the custom binding tags on gin's validator engine.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	return v.RegisterValidation("discord_invite", discordInvite)
}

// discordInvite accepts a discord.gg link, a discord.com/invite link or a bare code.
func discordInvite(fl validator.FieldLevel) bool {
	_, err := discord.ParseInviteCode(fl.Field().String())
	return err == nil
}
