package game

import "math/rand"

var phonetic = []string{
	"Alpha",
	"Bravo",
	"Charlie",
	"Delta",
	"Echo",
	"Foxtrot",
	"Golf",
	"Hotel",
	"India",
	"Juliet",
	"Kilo",
	"Lima",
	"Mike",
	"November",
	"Oscar",
	"Papa",
	"Quebec",
	"Romeo",
	"Sierra",
	"Tango",
	"Uniform",
	"Victor",
	"Whiskey",
	"X-ray",
	"Yankee",
	"Zulu",
}

// PhoneticPair generates a default lobby title like "Echo Tango".
func PhoneticPair() string {
	return phonetic[rand.Intn(len(phonetic))] + " " + phonetic[rand.Intn(len(phonetic))]
}
