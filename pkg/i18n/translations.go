package i18n

// translations maps notification key → language code → format string.
//
// Supported languages: en (English), ru (Russian), tr (Turkish), tk (Turkmen).
var translations = map[string]map[string]string{

	// ─── Ride status changes ─────────────────────────────────────────────────
	"rider.status.searching_driver": {
		"en": "Looking for a driver",
		"ru": "Ищем водителя",
		"tr": "Sürücü aranıyor",
		"tk": "Sürüji gözlenýär",
	},
	"rider.status.driver_assigned": {
		"en": "A driver has been assigned",
		"ru": "Водитель назначен",
		"tr": "Sürücü atandı",
		"tk": "Sürüji bellenildi",
	},
	"rider.status.accepted": {
		"en": "Your driver is confirmed",
		"ru": "Водитель подтверждён",
		"tr": "Sürücünüz onaylandı",
		"tk": "Sürüjiňiz tassyklandy",
	},
	"rider.status.driver_arriving": {
		"en": "Your driver is on the way",
		"ru": "Водитель в пути",
		"tr": "Sürücünüz yolda",
		"tk": "Sürüjiňiz ýolda",
	},
	"rider.status.driver_arrived": {
		"en": "Your driver has arrived",
		"ru": "Водитель прибыл",
		"tr": "Sürücünüz geldi",
		"tk": "Sürüjiňiz geldi",
	},
	"rider.status.in_progress": {
		"en": "Your trip has started",
		"ru": "Поездка началась",
		"tr": "Yolculuğunuz başladı",
		"tk": "Syýahatyňyz başlandy",
	},
	"rider.status.completed": {
		"en": "You have arrived. Please rate your trip",
		"ru": "Вы прибыли. Оцените поездку",
		"tr": "Vardınız. Lütfen yolculuğu değerlendirin",
		"tk": "Geldiňiz. Syýahaty bahalandyryň",
	},
	"rider.status.cancelled": {
		"en": "The ride was cancelled",
		"ru": "Поездка отменена",
		"tr": "Yolculuk iptal edildi",
		"tk": "Syýahat ýatyryldy",
	},

	// ─── Payments ────────────────────────────────────────────────────────────
	// %s = formatted amount
	"rider.payment.confirmed": {
		"en": "Payment of %s confirmed",
		"ru": "Платёж %s подтверждён",
		"tr": "%s ödemesi onaylandı",
		"tk": "%s töleg tassyklandy",
	},
	"rider.payment.received": {
		"en": "Payment confirmed",
		"ru": "Платёж подтверждён",
		"tr": "Ödeme onaylandı",
		"tk": "Töleg tassyklandy",
	},
	"rider.payment.pending": {
		"en": "Payment accepted. Waiting for the ride to update",
		"ru": "Платёж принят. Ожидаем обновления поездки",
		"tr": "Ödeme alındı. Yolculuğun güncellenmesi bekleniyor",
		"tk": "Töleg kabul edildi. Syýahatyň täzelenmegine garaşylýar",
	},
	"rider.payment.ride_cancelled": {
		"en": "The ride was cancelled before your payment was confirmed",
		"ru": "Поездка отменена до подтверждения платежа",
		"tr": "Yolculuk, ödemeniz onaylanmadan iptal edildi",
		"tk": "Syýahat tölegiňiz tassyklanmazdan öň ýatyryldy",
	},
	"rider.payment.link_opened": {
		"en": "Complete your payment in the opened page",
		"ru": "Завершите оплату на открытой странице",
		"tr": "Ödemenizi açılan sayfada tamamlayın",
		"tk": "Tölegi açylan sahypada tamamlaň",
	},
	"rider.payment.failed": {
		"en": "Payment failed. Please try again",
		"ru": "Платёж не прошёл. Попробуйте ещё раз",
		"tr": "Ödeme başarısız. Lütfen tekrar deneyin",
		"tk": "Töleg şowsuz. Täzeden synanyşyň",
	},
	"rider.payment.not_ready": {
		"en": "Payments are not available right now",
		"ru": "Оплата сейчас недоступна",
		"tr": "Ödemeler şu anda kullanılamıyor",
		"tk": "Töleg häzir elýeterli däl",
	},
	// %s = min, %s = max
	"rider.tip.out_of_bounds": {
		"en": "Tip must be between %s and %s",
		"ru": "Чаевые должны быть от %s до %s",
		"tr": "Bahşiş %s ile %s arasında olmalı",
		"tk": "Çaý puly %s bilen %s aralygynda bolmaly",
	},

	// ─── Ride actions ────────────────────────────────────────────────────────
	"rider.ride.cancelled": {
		"en": "Your ride has been cancelled",
		"ru": "Ваша поездка отменена",
		"tr": "Yolculuğunuz iptal edildi",
		"tk": "Syýahatyňyz ýatyryldy",
	},
	"rider.ride.rated": {
		"en": "Thanks for your feedback",
		"ru": "Спасибо за отзыв",
		"tr": "Geri bildiriminiz için teşekkürler",
		"tk": "Pikiriňiz üçin sag boluň",
	},
	"rider.ride.finished": {
		"en": "Trip finished. Thank you for riding with us",
		"ru": "Поездка завершена. Спасибо, что выбрали нас",
		"tr": "Yolculuk tamamlandı. Bizi tercih ettiğiniz için teşekkürler",
		"tk": "Syýahat tamamlandy. Bizi saýlanyňyz üçin sag boluň",
	},
	"rider.report.submitted": {
		"en": "Report submitted. Our team will review it",
		"ru": "Жалоба отправлена. Мы её рассмотрим",
		"tr": "Şikayet gönderildi. Ekibimiz inceleyecek",
		"tk": "Arz iberildi. Toparymyz seredip geçer",
	},

	// ─── Chat ────────────────────────────────────────────────────────────────
	"rider.chat.new_message.title": {
		"en": "New message from your driver",
		"ru": "Новое сообщение от водителя",
		"tr": "Sürücünüzden yeni mesaj",
		"tk": "Sürüjiňizden täze habar",
	},
	"rider.chat.send_failed": {
		"en": "Message could not be sent",
		"ru": "Не удалось отправить сообщение",
		"tr": "Mesaj gönderilemedi",
		"tk": "Habar iberilmedi",
	},

	// ─── Search ──────────────────────────────────────────────────────────────
	"rider.search.failed": {
		"en": "Location search is unavailable",
		"ru": "Поиск адреса недоступен",
		"tr": "Konum araması kullanılamıyor",
		"tk": "Ýer gözlegi elýeterli däl",
	},
	"rider.search.empty": {
		"en": "No locations found",
		"ru": "Адреса не найдены",
		"tr": "Konum bulunamadı",
		"tk": "Ýer tapylmady",
	},

	// ─── Ride types ──────────────────────────────────────────────────────────
	"rider.ridetypes.loading": {
		"en": "Loading ride options",
		"ru": "Загружаем варианты поездки",
		"tr": "Yolculuk seçenekleri yükleniyor",
		"tk": "Syýahat görnüşleri ýüklenýär",
	},
	"rider.ridetypes.failed": {
		"en": "Ride options could not be loaded",
		"ru": "Не удалось загрузить варианты поездки",
		"tr": "Yolculuk seçenekleri yüklenemedi",
		"tk": "Syýahat görnüşleri ýüklenmedi",
	},
	"rider.ridetypes.empty": {
		"en": "No ride options in this area",
		"ru": "В этом районе нет вариантов поездки",
		"tr": "Bu bölgede yolculuk seçeneği yok",
		"tk": "Bu sebitde syýahat görnüşi ýok",
	},

	// ─── Bids ────────────────────────────────────────────────────────────────
	"rider.bids.new_driver": {
		"en": "New",
		"ru": "Новый",
		"tr": "Yeni",
		"tk": "Täze",
	},
}
