package main

import "github.com/worckyky/sport-booking-backend/cmd"

func main() {
	cmd.Execute()
}
