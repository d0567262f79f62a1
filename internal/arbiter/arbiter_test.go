package arbiter

import "testing"

func TestEvaluate_ChristianEducation(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		christian bool
	}{
		{"doctrine exclusive salvation", "Jesus is the only way to heaven", true},
		{"bible question", "What does the Bible say about forgiveness?", true},
		{"trinity question", "What is the Trinity and how does the Holy Spirit work?", true},
		{"worldview comparison", "Explain the Christian worldview on creation vs evolution", true},
		{"biblical figure", "Who was Moses and why did he leave Egypt?", true},
		{"science question", "Help me understand how volcanoes erupt", false},
		{"math question", "What is 12 times 8?", false},
		{"history question", "Why did World War 2 start?", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.input)
			if got.ChristianEducation != tt.christian {
				t.Errorf("Evaluate(%q).ChristianEducation = %v, want %v",
					tt.input, got.ChristianEducation, tt.christian)
			}
		})
	}
}

func TestEvaluate_RespectfulDoctrine(t *testing.T) {
	respectful := []string{
		"Jesus is the only way to heaven",
		"No one comes to the Father except through Jesus Christ",
		"Saved by grace through faith alone",
		"Jesus is the Way, the Truth, and the Life",
		"What does the Bible say about salvation through Christ alone?",
		"Are there other ways to heaven besides Jesus?",
	}

	for _, text := range respectful {
		got := Evaluate(text)
		if !got.ChristianEducation {
			t.Errorf("Evaluate(%q) not recognized as Christian education", text)
			continue
		}
		if !got.Respectful {
			t.Errorf("Evaluate(%q).Respectful = false, want true", text)
		}
	}
}

// The red-flag veto must win even when allowlist keywords are present in
// the same sentence.
func TestEvaluate_HateVetoBeatsKeywords(t *testing.T) {
	hateful := []string{
		"Jesus loves everyone but Muslims should die",
		"Non-Christians deserve to die",
		"The Bible commands us to kill Muslims in God's name",
		"The Bible says God hates atheists",
		"Atheists are evil demons according to scripture",
		"I should hurt myself because I sinned",
	}

	for _, text := range hateful {
		got := Evaluate(text)
		if !got.ChristianEducation {
			t.Errorf("Evaluate(%q) not recognized as Christian education", text)
			continue
		}
		if got.Respectful {
			t.Errorf("Evaluate(%q).Respectful = true, want false", text)
		}
	}
}

// Recognized Christian content with neither red nor green flags defaults
// to respectful; the red flags are the safety gate, not the classifier.
func TestEvaluate_DefaultAllow(t *testing.T) {
	got := Evaluate("Tell me about Noah and the flood")
	if !got.ChristianEducation {
		t.Fatal("expected Christian education content")
	}
	if !got.Respectful {
		t.Error("expected default-allow for content without red flags")
	}
}
