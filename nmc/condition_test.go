package nmc

import "testing"

func TestNormalizeConditionTable(t *testing.T) {
	for text, expected := range conditionTable {
		t.Run(text, func(t *testing.T) {
			c, ok := NormalizeCondition(text)
			if c != expected || !ok {
				t.Errorf("NormalizeCondition(%q) expected (%s, true), got (%s, %v)", text, expected, c, ok)
			}
		})
	}
}

func TestNormalizeConditionRules(t *testing.T) {
	tests := []struct {
		text     string
		expected Condition
	}{
		{"小到中雨", Rainy},
		{"中到大雨", Pouring},
		{"大到暴雨", Pouring},
		{"阵雨", Rainy},
		{"冻雨", Rainy},
		{"阵雪", Snowy},
		{"小到中雪", Snowy},
		{"浮尘", Fog},
		{"强沙尘暴", Fog},
		{"少云", Cloudy},
		{"霾", Fog},
		{"浓雾", Fog},
		{" 晴 ", Sunny},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			c, ok := NormalizeCondition(tt.text)
			if c != tt.expected || !ok {
				t.Errorf("NormalizeCondition(%q) expected (%s, true), got (%s, %v)", tt.text, tt.expected, c, ok)
			}
		})
	}
}

func TestNormalizeConditionRuleOrder(t *testing.T) {
	// "中雨" is listed before the heavy rain rule, so it wins.
	if c, _ := NormalizeCondition("暴雨转中雨"); c != Rainy {
		t.Errorf("expected %s, got %s", Rainy, c)
	}
	// Rain beats snow.
	if c, _ := NormalizeCondition("小雪转小雨"); c != Rainy {
		t.Errorf("expected %s, got %s", Rainy, c)
	}
}

func TestNormalizeConditionUnknown(t *testing.T) {
	for _, text := range []string{"", "龙卷风", "unknown"} {
		c, ok := NormalizeCondition(text)
		if c != Exceptional || ok {
			t.Errorf("NormalizeCondition(%q) expected (%s, false), got (%s, %v)", text, Exceptional, c, ok)
		}
	}
}
