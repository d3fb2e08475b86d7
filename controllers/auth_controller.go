package controllers

import (
	"github.com/gin-gonic/gin"

	"nimbusdrive/services"
	"nimbusdrive/utils"
)

type AuthController struct {
	authService *services.AuthService
}

func NewAuthController(authService *services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

func (ac *AuthController) Signup(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Name     string `json:"name"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}

	user, token, err := ac.authService.Signup(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.CreatedResponse(c, "Account created successfully", gin.H{"user": user, "token": token})
}

func (ac *AuthController) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}

	user, token, err := ac.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Logged in successfully", gin.H{"user": user, "token": token})
}

func (ac *AuthController) Profile(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	user, err := ac.authService.Profile(c.Request.Context(), actor.Hex())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, "Profile retrieved", user)
}
