package main

import "accounthub/internal/app"

// @title           AccountHub API
// @version         1.0
// @description     Регистрация, вход, подтверждение email и сброс пароля.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
