package main

// General API documentation for swaggo. Run `swag init -g cmd/remyxai/docs.go` to generate docs.
//
// @title           remyxai API
// @version         1.0
// @description     Local control API for model serving stacks and inference.
//
// @contact.name   remyxai maintainers
// @contact.url    https://github.com/remyxai/remyxai-cli
//
// @license.name   Apache-2.0
// @license.url    https://www.apache.org/licenses/LICENSE-2.0
//
// @BasePath  /
//
// @schemes http
