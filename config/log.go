package config

import "log"

func defaultLogf(format string, args ...interface{}) {
	log.Printf("jackasio/config: "+format, args...)
}
