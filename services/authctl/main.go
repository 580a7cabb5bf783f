// authctl: служебные команды auth-сервиса: миграции, очистка сессий, хэш пароля.
package main

import "github.com/projectcancer/services/authctl/cmd"

func main() {
	cmd.Execute()
}
