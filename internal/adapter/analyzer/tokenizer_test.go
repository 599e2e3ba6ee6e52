package analyzer

import (
	"reflect"
	"testing"
)

func TestTokenizer_Tokenize_FoldPlurals(t *testing.T) {
	tok := NewTokenizer(true)

	tokens := tok.Tokenize("Infants with fevers and allergies")
	expected := []string{"infant", "fever", "allergy"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("expected %v, got %v", expected, tokens)
	}
}

func TestTokenizer_Tokenize_KeepsPlurals(t *testing.T) {
	tok := NewTokenizer(false)

	tokens := tok.Tokenize("Infants with fevers")
	expected := []string{"infants", "fevers"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("expected %v, got %v", expected, tokens)
	}
}

func TestTokenizer_SingularLeavesLatinEndings(t *testing.T) {
	tok := NewTokenizer(true)

	tokens := tok.Tokenize("virus abscess diagnosis")
	expected := []string{"virus", "abscess", "diagnosis"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("expected %v, got %v", expected, tokens)
	}
}

func TestTokenizer_StopwordRemoval(t *testing.T) {
	tok := NewTokenizer(false)

	tokens := tok.Tokenize("the patient should be monitored")
	for _, token := range tokens {
		if token == "the" || token == "patient" || token == "should" {
			t.Errorf("stopword %q should be removed, got %v", token, tokens)
		}
	}
}

func TestTokenizer_ShortWordRemoval(t *testing.T) {
	tok := NewTokenizer(false)

	tokens := tok.Tokenize("a I go to")
	for _, token := range tokens {
		if len(token) < 2 {
			t.Errorf("short word should be removed: %s", token)
		}
	}
}

func TestTokenizer_EmptyInput(t *testing.T) {
	tok := NewTokenizer(true)

	tokens := tok.Tokenize("")
	if len(tokens) != 0 {
		t.Errorf("expected 0 tokens for empty input, got %d", len(tokens))
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"heart rate", []string{"heart", "rate"}},
		{"beta-blocker", []string{"beta-blocker"}},
		{"-leading dash", []string{"leading", "dash"}},
		{"SpO2 (oxygen)", []string{"SpO2", "oxygen"}},
		{"5mg/kg", []string{"5mg", "kg"}},
	}

	for _, tt := range tests {
		words := splitWords(tt.input)
		if !reflect.DeepEqual(words, tt.expected) {
			t.Errorf("splitWords(%q) = %v, want %v", tt.input, words, tt.expected)
		}
	}
}
