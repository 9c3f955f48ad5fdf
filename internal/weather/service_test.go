package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/evahub/eva-gateway/internal/config"
)

func TestFormatCurrent(t *testing.T) {
	tests := []struct {
		name string
		cur  Current
		want string
	}{
		{
			name: "mild day",
			cur:  Current{City: "Киев", Temp: 20, FeelsLike: 21, Humidity: 60, WindSpeed: 4, DescriptionRu: "ясно"},
			want: "В городе Киев сейчас ясно, 20°C. Тепло.",
		},
		{
			name: "feels like differs",
			cur:  Current{City: "Москва", Temp: -8, FeelsLike: -14, Humidity: 70, WindSpeed: 6, DescriptionRu: "снег"},
			want: "В городе Москва сейчас снег, -8°C (ощущается как -14°C). Холодно.",
		},
		{
			name: "windy and humid",
			cur:  Current{City: "Одесса", Temp: 27, FeelsLike: 29, Humidity: 85, WindSpeed: 12.5, DescriptionRu: "дождь"},
			want: "В городе Одесса сейчас дождь, 27°C. Жарко. Ветер 12.5 м/с. Высокая влажность.",
		},
		{
			name: "deep frost",
			cur:  Current{City: "Якутск", Temp: -30, FeelsLike: -31, Humidity: 50, WindSpeed: 2, DescriptionRu: "ясно"},
			want: "В городе Якутск сейчас ясно, -30°C. Очень холодно.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrent(tt.cur))
		})
	}
}

func TestFormatForecast(t *testing.T) {
	days := []ForecastDay{
		{Day: time.Monday, TempMin: 12, TempMax: 19, DescriptionRu: "переменная облачность"},
		{Day: time.Tuesday, TempMin: 10, TempMax: 16, DescriptionRu: "небольшой дождь"},
	}
	got := FormatForecast("Минск", days)
	assert.Equal(t,
		"Прогноз погоды для Минск:\n"+
			"• Понедельник: 12..19°C, переменная облачность\n"+
			"• Вторник: 10..16°C, небольшой дождь",
		got)
}

func TestTranslate(t *testing.T) {
	assert.Equal(t, "пасмурно", translate("overcast clouds"))
	assert.Equal(t, "volcanic ash", translate("volcanic ash"))
}

func TestConfigured(t *testing.T) {
	assert.False(t, NewService(config.WeatherConfig{}).Configured())
	assert.True(t, NewService(config.WeatherConfig{APIKey: "k"}).Configured())
}

func TestMostCommon(t *testing.T) {
	assert.Equal(t, "rain", mostCommon([]string{"rain", "clear sky", "rain"}))
	assert.Equal(t, "", mostCommon(nil))
}
