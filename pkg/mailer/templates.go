package mailer

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/veoxhq/veox-backend/pkg/enums"
)

// TemplateData carries the dynamic pieces interpolated into a template.
type TemplateData struct {
	BaseURL    string
	OrderID    string
	OrderTitle string
	Price      *decimal.Decimal
}

// RenderedEmail is the subject/body pair produced for one locale.
type RenderedEmail struct {
	Subject string
	HTML    string
}

// Render produces the localized email for a notification type. Unknown
// locales fall back to Russian.
func Render(notificationType enums.NotificationType, locale enums.Locale, data TemplateData) (RenderedEmail, error) {
	loc := locale.OrDefault()
	title := html.EscapeString(data.OrderTitle)
	link := orderLink(data.BaseURL, loc, data.OrderID)

	switch notificationType {
	case enums.NotificationTypeNewOffer:
		return renderNewOffer(loc, title, link, data.Price), nil
	case enums.NotificationTypeOfferAccepted:
		return renderOfferAccepted(loc, title, link), nil
	case enums.NotificationTypeContactPurchased:
		return renderContactPurchased(loc, title, link), nil
	case enums.NotificationTypeReviewReminder:
		return renderReviewReminder(loc, title, link+"/review"), nil
	default:
		return RenderedEmail{}, fmt.Errorf("no email template for notification type %q", notificationType)
	}
}

func orderLink(baseURL string, locale enums.Locale, orderID string) string {
	return fmt.Sprintf("%s/%s/orders/%s", strings.TrimRight(baseURL, "/"), locale, orderID)
}

func renderNewOffer(locale enums.Locale, title, link string, price *decimal.Decimal) RenderedEmail {
	priceRowRU := ""
	priceRowET := ""
	if price != nil {
		priceRowRU = fmt.Sprintf("<p>Предложенная цена: <strong>%s€</strong></p>", price.String())
		priceRowET = fmt.Sprintf("<p>Pakutud hind: <strong>%s€</strong></p>", price.String())
	}

	if locale == enums.LocaleEstonian {
		return RenderedEmail{
			Subject: fmt.Sprintf("Uus pakkumine teie tellimusele: %s", title),
			HTML: fmt.Sprintf(`<h1>Uus pakkumine!</h1>
<p>Täitja vastas teie tellimusele "%s".</p>
%s<a href="%s">Vaata pakkumist</a>`, title, priceRowET, link),
		}
	}
	return RenderedEmail{
		Subject: fmt.Sprintf("Новое предложение на ваш заказ: %s", title),
		HTML: fmt.Sprintf(`<h1>Новое предложение!</h1>
<p>Исполнитель откликнулся на ваш заказ "%s".</p>
%s<a href="%s">Посмотреть предложение</a>`, title, priceRowRU, link),
	}
}

func renderOfferAccepted(locale enums.Locale, title, link string) RenderedEmail {
	if locale == enums.LocaleEstonian {
		return RenderedEmail{
			Subject: fmt.Sprintf("Teie pakkumine on vastu võetud: %s", title),
			HTML: fmt.Sprintf(`<h1>Pakkumine vastu võetud!</h1>
<p>Klient võttis vastu teie pakkumise tellimusele "%s".</p>
<p>Nüüd saate saada kliendi kontaktid ja temaga ühendust võtta.</p>
<a href="%s">Vaata tellimust</a>`, title, link),
		}
	}
	return RenderedEmail{
		Subject: fmt.Sprintf("Ваше предложение принято: %s", title),
		HTML: fmt.Sprintf(`<h1>Предложение принято!</h1>
<p>Заказчик принял ваше предложение на заказ "%s".</p>
<p>Теперь вы можете получить контакты заказчика и связаться с ним.</p>
<a href="%s">Посмотреть заказ</a>`, title, link),
	}
}

func renderContactPurchased(locale enums.Locale, title, link string) RenderedEmail {
	if locale == enums.LocaleEstonian {
		return RenderedEmail{
			Subject: "Kontaktide juurdepääs saadud",
			HTML: fmt.Sprintf(`<h1>Makse õnnestus!</h1>
<p>Olete saanud juurdepääsu kliendi kontaktandmetele tellimuse "%s" jaoks.</p>
<a href="%s">Vaata kontakte</a>`, title, link),
		}
	}
	return RenderedEmail{
		Subject: "Доступ к контактам получен",
		HTML: fmt.Sprintf(`<h1>Оплата успешна!</h1>
<p>Вы получили доступ к контактным данным заказчика для заказа "%s".</p>
<a href="%s">Посмотреть контакты</a>`, title, link),
	}
}

func renderReviewReminder(locale enums.Locale, title, link string) RenderedEmail {
	if locale == enums.LocaleEstonian {
		return RenderedEmail{
			Subject: "Jätke arvustus täidetud tellimuse kohta",
			HTML: fmt.Sprintf(`<h1>Aidake teistel valida täitjat</h1>
<p>Tellimus "%s" on täidetud. Palun jätke arvustus täitja töö kohta.</p>
<a href="%s">Jäta arvustus</a>`, title, link),
		}
	}
	return RenderedEmail{
		Subject: "Оставьте отзыв о выполненном заказе",
		HTML: fmt.Sprintf(`<h1>Помогите другим выбрать исполнителя</h1>
<p>Заказ "%s" был выполнен. Пожалуйста, оставьте отзыв о работе исполнителя.</p>
<a href="%s">Оставить отзыв</a>`, title, link),
	}
}
