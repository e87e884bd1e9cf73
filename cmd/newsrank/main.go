package main

// @title           Newsrank API
// @version         1.0
// @description     Multi-signal ranking of crypto news for African markets: hybrid search, personalized recommendations and regional trending.

// @contact.name   CoinDaily Engineering
// @contact.url    https://github.com/Seedline-Foundation/Coindailynow-sub003/issues

// @host      localhost:8081
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"fmt"
	"os"

	_ "github.com/Seedline-Foundation/Coindailynow-sub003/docs"
)

var version = "dev"

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
