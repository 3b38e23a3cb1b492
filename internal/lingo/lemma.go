package lingo

import (
	"strings"

	"github.com/jinzhu/inflection"
)

// irregularVerbs maps inflected forms to the infinitive.
var irregularVerbs = map[string]string{
	"am": "be", "is": "be", "are": "be", "was": "be", "were": "be", "been": "be", "being": "be",
	"has": "have", "had": "have", "having": "have",
	"does": "do", "did": "do", "done": "do", "doing": "do",
	"goes": "go", "went": "go", "gone": "go",
	"made": "make", "said": "say", "paid": "pay", "laid": "lay",
	"took": "take", "taken": "take", "came": "come", "saw": "see", "seen": "see",
	"knew": "know", "known": "know", "got": "get", "gotten": "get",
	"gave": "give", "given": "give", "found": "find", "thought": "think",
	"told": "tell", "became": "become", "left": "leave", "felt": "feel",
	"brought": "bring", "began": "begin", "begun": "begin", "kept": "keep",
	"held": "hold", "wrote": "write", "written": "write", "stood": "stand",
	"heard": "hear", "meant": "mean", "met": "meet", "ran": "run",
	"sat": "sit", "spoke": "speak", "spoken": "speak", "led": "lead",
	"grew": "grow", "grown": "grow", "lost": "lose", "fell": "fall", "fallen": "fall",
	"sent": "send", "built": "build", "understood": "understand",
	"drew": "draw", "drawn": "draw", "broke": "break", "broken": "break",
	"spent": "spend", "rose": "rise", "risen": "rise", "drove": "drive", "driven": "drive",
	"bought": "buy", "wore": "wear", "worn": "wear", "chose": "choose", "chosen": "choose",
	"sought": "seek", "threw": "throw", "thrown": "throw", "caught": "catch",
	"dealt": "deal", "won": "win", "fought": "fight", "taught": "teach",
	"ate": "eat", "eaten": "eat", "flew": "fly", "flown": "fly", "sang": "sing", "sung": "sing",
	"slept": "sleep", "sold": "sell", "struck": "strike", "hid": "hide", "hidden": "hide",
	"shot": "shoot", "shook": "shake", "shaken": "shake", "fed": "feed",
	"forgot": "forget", "forgotten": "forget", "ridden": "ride", "rode": "ride",
	"swam": "swim", "swum": "swim", "drank": "drink", "drunk": "drink",
	"froze": "freeze", "frozen": "freeze", "woke": "wake", "woken": "wake",
	"bore": "bear", "born": "bear", "tore": "tear", "torn": "tear",
	"used": "use", "using": "use", "choosing": "choose",
	"died": "die", "dying": "die", "lied": "lie", "tied": "tie",
	"lent": "lend", "bent": "bend", "fled": "flee", "slid": "slide", "bit": "bite", "bitten": "bite",
}

// nounHomographs are irregular verb forms that are also everyday nouns.
var nounHomographs = map[string]struct{}{
	"saw": {}, "bit": {}, "shot": {}, "left": {}, "rose": {},
	"fell": {}, "spoke": {}, "bore": {}, "drunk": {},
}

// IsInflectedVerb reports whether word is an irregular inflected verb form
// ("ran", "sat", "went"). The tagger sometimes labels these as nouns in short
// sentences. Forms that double as common nouns ("saw", "left") are not reported.
func IsInflectedVerb(word string) bool {
	lower := strings.ToLower(word)
	if _, ok := nounHomographs[lower]; ok {
		return false
	}
	_, ok := irregularVerbs[lower]
	return ok
}

// eEndings are stem endings that lost a silent "e" before -ing / -ed.
var eEndings = []string{
	"at", "bl", "iz", "ak", "iv", "ov", "av", "uc", "rg", "dg", "uir", "ur",
	"os", "ar", "ag", "ut", "ot", "ok", "ik", "yz", "ns", "rs", "rc", "ib", "lv",
}

// Lemma returns the lowercase base form of word given its Penn Treebank tag:
// verbs become infinitives, plural nouns become singular, anything else is
// only lowercased.
func Lemma(word, tag string) string {
	lower := strings.ToLower(word)
	switch ClassOf(tag) {
	case Verb:
		return verbLemma(lower, tag)
	case Noun:
		if tag == "NNS" || tag == "NNPS" {
			return inflection.Singular(lower)
		}
		return lower
	default:
		return lower
	}
}

func verbLemma(w, tag string) string {
	if base, ok := irregularVerbs[w]; ok {
		return base
	}
	switch tag {
	case "VBZ":
		return stripThirdPerson(w)
	case "VBG":
		if stem, ok := strings.CutSuffix(w, "ing"); ok && len(stem) >= 2 {
			return repairStem(stem)
		}
	case "VBD", "VBN":
		if stem, ok := strings.CutSuffix(w, "ied"); ok && len(stem) >= 1 {
			return stem + "y"
		}
		if stem, ok := strings.CutSuffix(w, "ed"); ok && len(stem) >= 2 {
			return repairStem(stem)
		}
	}
	return w
}

func stripThirdPerson(w string) string {
	switch {
	case strings.HasSuffix(w, "ies") && len(w) > 4:
		return strings.TrimSuffix(w, "ies") + "y"
	case strings.HasSuffix(w, "sses"), strings.HasSuffix(w, "shes"),
		strings.HasSuffix(w, "ches"), strings.HasSuffix(w, "xes"),
		strings.HasSuffix(w, "zzes"), strings.HasSuffix(w, "oes"):
		return strings.TrimSuffix(w, "es")
	case strings.HasSuffix(w, "ss"):
		return w
	case strings.HasSuffix(w, "s") && len(w) > 2:
		return strings.TrimSuffix(w, "s")
	}
	return w
}

// repairStem undoes consonant doubling (stopp -> stop) and restores a
// dropped silent e (creat -> create) on a stem left by -ing / -ed removal.
func repairStem(stem string) string {
	n := len(stem)
	if n >= 3 && stem[n-1] == stem[n-2] && !isVowel(stem[n-1]) &&
		stem[n-1] != 'l' && stem[n-1] != 's' && stem[n-1] != 'z' {
		return stem[:n-1]
	}
	for _, end := range eEndings {
		if strings.HasSuffix(stem, end) && !hasDoubleVowelBefore(stem, len(end)) {
			return stem + "e"
		}
	}
	return stem
}

// hasDoubleVowelBefore guards words like "avoid" or "look" from gaining an e.
func hasDoubleVowelBefore(stem string, suffixLen int) bool {
	i := len(stem) - suffixLen
	return i >= 1 && i < len(stem) && isVowel(stem[i-1]) && isVowel(stem[i])
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
